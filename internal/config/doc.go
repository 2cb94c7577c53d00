// Package config loads gridstore settings from a YAML or TOML file and the
// environment, and turns them into a store.Config.
//
// The file format is chosen by extension: .toml is TOML, anything else is
// YAML. ${VAR} references in the file are expanded from the environment
// before parsing. Unknown keys are rejected in both formats.
//
// Environment variables override the file:
//
//	GRIDSTORE_BACKEND         sheets | sqlite | memory
//	GRIDSTORE_SPREADSHEET_ID
//	GRIDSTORE_TAB
//	GRIDSTORE_SQLITE_PATH
//	GRIDSTORE_LOG_LEVEL       debug | info | warn | error
//	GRIDSTORE_CREDENTIALS     path to a credential JSON bundle
package config
