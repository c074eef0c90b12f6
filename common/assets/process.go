package assets

import (
	"embed"
	"io/fs"
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/config"
)

//go:embed migrations/*.sql templates/*.html
var compiled embed.FS

var tempMigrations string
var tempTemplates string

func SetupMigrations(givenMigrationsPath string) {
	_, err := os.Stat(givenMigrationsPath)
	exists := err == nil || !os.IsNotExist(err)
	if !exists {
		tempMigrations, err = os.MkdirTemp(os.TempDir(), "snapshot-repo-migrations")
		if err != nil {
			panic(err)
		}
		logrus.Info("Migrations path doesn't exist - attempting to unpack from compiled data")
		extractPrefixTo("migrations", tempMigrations)
		givenMigrationsPath = tempMigrations
	}

	config.Runtime.MigrationsPath = givenMigrationsPath
}

func SetupTemplates(givenTemplatesPath string) {
	if givenTemplatesPath != "" {
		_, err := os.Stat(givenTemplatesPath)
		exists := err == nil || !os.IsNotExist(err)
		if !exists {
			tempTemplates, err = os.MkdirTemp(os.TempDir(), "snapshot-repo-templates")
			if err != nil {
				panic(err)
			}
			logrus.Info("Templates path doesn't exist - attempting to unpack from compiled data")
			extractPrefixTo("templates", tempTemplates)
			givenTemplatesPath = tempTemplates
		}
	}

	config.Runtime.TemplatesPath = givenTemplatesPath
}

func Cleanup() {
	if tempMigrations != "" {
		logrus.Info("Cleaning up temporary assets directory: ", tempMigrations)
		_ = os.RemoveAll(tempMigrations)
	}
	if tempTemplates != "" {
		logrus.Info("Cleaning up temporary assets directory: ", tempTemplates)
		_ = os.RemoveAll(tempTemplates)
	}
}

func extractPrefixTo(pathName string, destination string) {
	entries, err := fs.ReadDir(compiled, pathName)
	if err != nil {
		panic(err)
	}
	for _, f := range entries {
		if f.IsDir() {
			continue
		}

		b, err := compiled.ReadFile(path.Join(pathName, f.Name()))
		if err != nil {
			panic(err)
		}

		dest := path.Join(destination, f.Name())
		logrus.Infof("Writing %s to %s", f.Name(), dest)
		if err = os.WriteFile(dest, b, 0644); err != nil {
			panic(err)
		}
	}
}
