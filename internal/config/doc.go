// Package config loads clipspeak settings from viper and watches the voice
// override file.
package config
