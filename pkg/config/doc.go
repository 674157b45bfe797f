// Package config provides configuration management for tabula.
//
// # Sources
//
// Configuration is layered, lowest precedence first:
//
//   - NewConfig defaults
//   - a YAML file (with ${VAR_NAME} substitution when loaded through Load)
//   - TABULA_* environment variables, for example TABULA_WRITE_MAX_DECIMAL=5
//   - command line flags bound on the viper instance
//
// # Usage
//
//	v := viper.New()
//	_ = v.BindPFlag("observability.log_level", cmd.Flags().Lookup("log-level"))
//	cfg, err := config.LoadWithViper(v, "tabula.yaml")
//
// Writing a starter file:
//
//	err := config.Save("tabula.yaml", config.NewConfig("rates"))
package config
