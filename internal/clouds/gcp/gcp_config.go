package gcp

import "github.com/AnotherFullstackDev/deployctl/internal/config"

type CloudRunConfig struct {
	ServiceName          string
	ProjectID            string
	Region               string
	AllowUnauthenticated bool
}

func CloudRunConfigFromConfig(cfg *config.Config) CloudRunConfig {
	return CloudRunConfig{
		ServiceName:          cfg.ServiceName,
		ProjectID:            cfg.ProjectID,
		Region:               cfg.Region,
		AllowUnauthenticated: cfg.AllowUnauthenticated,
	}
}
