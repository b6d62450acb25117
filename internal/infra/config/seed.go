package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"erent/internal/app/handlers/reference"
	domainref "erent/internal/domain/reference"
)

type seedFile struct {
	Countries     []seedRow `yaml:"countries"`
	Cities        []seedRow `yaml:"cities"`
	Amenities     []seedRow `yaml:"amenities"`
	PropertyTypes []seedRow `yaml:"property_types"`
	Genders       []seedRow `yaml:"genders"`
	Roles         []seedRow `yaml:"roles"`
}

type seedRow struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
	Country     string `yaml:"country"`
}

// LoadSeed reads reference data from a YAML file. Countries come before
// cities in the result so parents exist when children are inserted.
func LoadSeed(path string) ([]reference.SeedEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) ([]reference.SeedEntry, error) {
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse reference seed: %w", err)
	}
	groups := []struct {
		kind domainref.Kind
		rows []seedRow
	}{
		{domainref.KindCountry, file.Countries},
		{domainref.KindCity, file.Cities},
		{domainref.KindAmenity, file.Amenities},
		{domainref.KindPropertyType, file.PropertyTypes},
		{domainref.KindGender, file.Genders},
		{domainref.KindRole, file.Roles},
	}
	var out []reference.SeedEntry
	for _, g := range groups {
		for i, row := range g.rows {
			if row.ID == "" || row.Name == "" {
				return nil, fmt.Errorf("reference seed: %s #%d needs id and name", g.kind, i+1)
			}
			out = append(out, reference.SeedEntry{
				ID:          row.ID,
				Kind:        g.kind,
				Name:        row.Name,
				Code:        row.Code,
				Description: row.Description,
				ParentID:    row.Country,
			})
		}
	}
	return out, nil
}
