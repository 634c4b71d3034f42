// Package config provides configuration loading and validation for the
// gateway and its tooling.
//
// It uses Viper to load configuration from a config.yml plus a .env file,
// with environment variables overriding file values. Config structs embed
// ServiceConfig and follow the ApplyDefaults/Validate convention.
package config
