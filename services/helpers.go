package services

import (
	"strings"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/storage"
)

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team == nil || uploader == nil {
		return
	}
	if team.LogoKey != nil && *team.LogoKey != "" {
		url := uploader.GetPublicURL(*team.LogoKey)
		team.LogoURL = &url
	}
}

func getExtensionFromContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
