package utils

import "mindbridge/config"

// IsProduction reports whether the service runs with the production profile.
func IsProduction() bool {
	return config.IsProduction()
}
