package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/models"
)

var lotCmd = &cobra.Command{
	Use:   "lot",
	Short: "Manage lot and expertise source data",
}

var lotImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import lots and expertises from a YAML file",
	RunE:  importLots,
}

var lotFile string

func init() {
	lotImportCmd.Flags().StringVarP(&lotFile, "file", "f", "", "YAML file with lots and expertises (required)")
	lotImportCmd.MarkFlagRequired("file")

	lotCmd.AddCommand(lotImportCmd)
}

// lotFileEntry is one lot in an import file, with its expertises nested
type lotFileEntry struct {
	models.Lot `yaml:",inline"`
	Dimensions map[string]interface{} `yaml:"dimensions_cm"`
	Expertises []models.Expertise     `yaml:"expertises"`
}

type lotImportFile struct {
	Lots []lotFileEntry `yaml:"lots"`
}

// parseLotFile decodes an import file. Expertises inherit the lot ID of the
// entry they are nested under.
func parseLotFile(data []byte) ([]*models.Lot, []*models.Expertise, error) {
	var file lotImportFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse lot file: %w", err)
	}

	var (
		lots       []*models.Lot
		expertises []*models.Expertise
	)
	for i := range file.Lots {
		entry := file.Lots[i]
		if entry.ID == "" {
			return nil, nil, fmt.Errorf("lot #%d: id is required", i+1)
		}

		lot := entry.Lot
		if len(entry.Dimensions) > 0 {
			raw, err := json.Marshal(entry.Dimensions)
			if err != nil {
				return nil, nil, fmt.Errorf("lot %s: invalid dimensions_cm: %w", lot.ID, err)
			}
			lot.DimensionsCM = raw
		}
		lots = append(lots, &lot)

		for j := range entry.Expertises {
			exp := entry.Expertises[j]
			if exp.ID == "" {
				return nil, nil, fmt.Errorf("lot %s: expertise #%d: id is required", lot.ID, j+1)
			}
			exp.LotID = lot.ID
			expertises = append(expertises, &exp)
		}
	}

	return lots, expertises, nil
}

func importLots(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(lotFile)
	if err != nil {
		return fmt.Errorf("failed to read lot file: %w", err)
	}

	lots, expertises, err := parseLotFile(data)
	if err != nil {
		return err
	}

	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	lotRepo := repository.NewLotRepository(database)

	for _, lot := range lots {
		if err := lotRepo.UpsertLot(ctx, lot); err != nil {
			return fmt.Errorf("lot %s: %w", lot.ID, err)
		}
	}
	for _, exp := range expertises {
		if err := lotRepo.UpsertExpertise(ctx, exp); err != nil {
			return fmt.Errorf("expertise %s: %w", exp.ID, err)
		}
	}

	color.Green("Imported %d lots and %d expertises", len(lots), len(expertises))
	return nil
}
