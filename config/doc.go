// Package config provides 12-factor configuration for the host.
//
// Configuration is loaded from environment variables with defaults, and
// may be overlaid by a YAML file. Values are validated after loading.
//
// Configuration Sections:
//   - Runtime: discovery roots and the requested runtime version
//   - Assembly: hosted assembly name, base path and entry type
//   - SharedMemory: mapping name, size, backing directory, locking
//   - Logging: log level and output format
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("hosting %s from %s\n", cfg.Assembly.Name, cfg.Assembly.Path)
//
// Environment Variables:
//   - DOTNET_ROOT, PATH, CLRHOST_RUNTIME_VERSION
//   - CLRHOST_ASSEMBLY, CLRHOST_ASSEMBLY_PATH, CLRHOST_ASSEMBLY_TYPE
//   - CLRHOST_SHM_NAME, CLRHOST_SHM_SIZE, CLRHOST_SHM_DIR, CLRHOST_SHM_LOCKING
//   - CLRHOST_LOG_LEVEL, CLRHOST_LOG_DEV
package config
