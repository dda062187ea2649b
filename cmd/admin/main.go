// Command admin provides user and schema management for recipebox.
package main

import (
	"fmt"
	"os"

	"recipebox/internal/config"
	"recipebox/internal/database"

	"gorm.io/gorm"
)

func main() {
	connect := func() (*gorm.DB, error) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return database.Connect(cfg)
	}

	if err := newRootCommand(connect).Execute(); err != nil {
		os.Exit(1)
	}
}
