// Package templates loads the form template library.
package templates

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/privacy"
	"formbridge/internal/usecase/matcher"
)

//go:embed library.yaml
var embedded []byte

type libraryFile struct {
	Version   string                `yaml:"version" validate:"required"`
	Templates []entity.FormTemplate `yaml:"templates" validate:"required,min=1,dive"`
}

// LoadEmbedded loads the library compiled into the binary.
func LoadEmbedded() (*matcher.Library, error) {
	return Parse(embedded)
}

// LoadFile loads a library from disk, for deployments that ship their own.
func LoadFile(path string) (*matcher.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template library: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*matcher.Library, error) {
	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode template library: %w", err)
	}

	if err := newValidator().Struct(f); err != nil {
		return nil, fmt.Errorf("invalid template library: %w", err)
	}

	lib, err := matcher.NewLibrary(f.Version, f.Templates)
	if err != nil {
		return nil, fmt.Errorf("compile template library: %w", err)
	}
	return lib, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("token", func(fl validator.FieldLevel) bool {
		_, err := privacy.ParseToken(fl.Field().String())
		return err == nil
	})
	return v
}
