package config

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	PathPrefix       string
}

// UploadContexts holds the rules for every kind of accepted upload.
var UploadContexts = map[string]UploadConfig{
	"profile_photo": {
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxSizeMB:        5,
		PathPrefix:       "profile-photos",
	},
	// xlsx workbooks sniff as zip archives.
	"resource_import": {
		AllowedMimeTypes: []string{"application/zip"},
		MaxSizeMB:        10,
	},
}
