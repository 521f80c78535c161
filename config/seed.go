package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"estatenexus/models"
)

// SeedData is demo content loaded from YAML files in the seed directory, one
// document per file. Used by the -seed one-shot mode.
type SeedData struct {
	Agents     []models.Agent
	Properties []models.Property
}

type seedDocument struct {
	Agents     []models.Agent `yaml:"agents"`
	Properties []propertySeed `yaml:"properties"`
}

type propertySeed struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Type         string   `yaml:"type"`
	Price        float64  `yaml:"price"`
	Beds         int      `yaml:"beds"`
	Baths        float64  `yaml:"baths"`
	Area         int      `yaml:"area"`
	Description  string   `yaml:"description"`
	Features     []string `yaml:"features"`
	Images       []string `yaml:"images"`
	Address      string   `yaml:"address"`
	City         string   `yaml:"city"`
	State        string   `yaml:"state"`
	Zip          string   `yaml:"zip"`
	Lat          *float64 `yaml:"lat"`
	Lng          *float64 `yaml:"lng"`
	YearBuilt    *int     `yaml:"year_built"`
	GarageSpaces *int     `yaml:"garage_spaces"`
	AgentID      string   `yaml:"agent_id"`
}

// LoadSeed reads every YAML file in dir. A missing directory yields empty
// seed data, matching a deployment that ships none.
func LoadSeed(dir string) (*SeedData, error) {
	seed := &SeedData{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return seed, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		var doc seedDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}

		seed.Agents = append(seed.Agents, doc.Agents...)
		for _, p := range doc.Properties {
			prop, err := p.toModel()
			if err != nil {
				return nil, err
			}
			seed.Properties = append(seed.Properties, prop)
		}
	}

	return seed, nil
}

func (p propertySeed) toModel() (models.Property, error) {
	typ, err := models.ParsePropertyType(p.Type)
	if err != nil {
		return models.Property{}, err
	}

	id := uuid.New()
	if p.ID != "" {
		parsed, err := uuid.Parse(p.ID)
		if err != nil {
			return models.Property{}, err
		}
		id = parsed
	}

	var agentID *uuid.UUID
	if p.AgentID != "" {
		parsed, err := uuid.Parse(p.AgentID)
		if err != nil {
			return models.Property{}, err
		}
		agentID = &parsed
	}

	return models.Property{
		ID:          id,
		Title:       p.Title,
		Type:        typ,
		Price:       p.Price,
		Beds:        p.Beds,
		Baths:       p.Baths,
		Area:        p.Area,
		Description: p.Description,
		Features:    p.Features,
		Images:      p.Images,
		Location: models.Location{
			Address: p.Address,
			City:    p.City,
			State:   p.State,
			Zip:     p.Zip,
			Lat:     p.Lat,
			Lng:     p.Lng,
		},
		YearBuilt:    p.YearBuilt,
		GarageSpaces: p.GarageSpaces,
		Available:    true,
		CreatedAt:    time.Now(),
		AgentID:      agentID,
	}, nil
}
