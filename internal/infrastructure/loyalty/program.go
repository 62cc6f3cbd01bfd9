package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

const (
	soqlJournalTypes    = "SELECT Id, Name FROM JournalType"
	soqlJournalSubtypes = "SELECT Id, Name FROM JournalSubType"
)

type queryAttributes struct {
	Type string `json:"type"`
}

type queryRecord struct {
	Attributes queryAttributes `json:"attributes"`
	ID         string          `json:"Id"`
	Name       string          `json:"Name"`
}

func (r queryRecord) toObject() domain.ProgramObject {
	return domain.ProgramObject{ID: r.ID, Name: r.Name, Type: r.Attributes.Type}
}

type queryResult[T any] struct {
	TotalSize int `json:"totalSize"`
	Records   []T `json:"records"`
}

type tierGroupRecord struct {
	queryRecord
	LoyaltyTiers *queryResult[queryRecord] `json:"LoyaltyTiers"`
}

type programRecord struct {
	queryRecord
	LoyaltyProgramCurrencies *queryResult[queryRecord]     `json:"LoyaltyProgramCurrencies"`
	LoyaltyTierGroups        *queryResult[tierGroupRecord] `json:"LoyaltyTierGroups"`
}

func programConfigQuery(programName string) string {
	name := strings.ReplaceAll(programName, "'", `\'`)
	return "SELECT Id, Name, (SELECT Id, Name FROM LoyaltyProgramCurrencies), " +
		"(SELECT Id, Name, (SELECT Id, Name FROM LoyaltyTiers) FROM LoyaltyTierGroups) " +
		"FROM LoyaltyProgram WHERE Name = '" + name + "' LIMIT 1"
}

// FetchProgramConfig queries the program, its currencies and tiers, and the
// org-wide journal types and subtypes. A program that does not exist yields
// an empty configuration rather than an error.
func (c *Client) FetchProgramConfig(ctx context.Context) (*domain.ProgramConfig, error) {
	var programs queryResult[programRecord]
	if err := c.query(ctx, programConfigQuery(c.cfg.ProgramName), &programs); err != nil {
		return nil, fmt.Errorf("program configuration: %w", err)
	}

	var journalTypes, journalSubtypes queryResult[queryRecord]
	if err := c.query(ctx, soqlJournalTypes, &journalTypes); err != nil {
		return nil, fmt.Errorf("journal types: %w", err)
	}
	if err := c.query(ctx, soqlJournalSubtypes, &journalSubtypes); err != nil {
		return nil, fmt.Errorf("journal subtypes: %w", err)
	}

	cfg := &domain.ProgramConfig{
		Currencies:      []domain.ProgramObject{},
		TierGroups:      []domain.TierGroup{},
		JournalTypes:    objects(&journalTypes),
		JournalSubtypes: objects(&journalSubtypes),
	}
	if len(programs.Records) == 0 {
		return cfg, nil
	}

	program := programs.Records[0]
	cfg.ID = program.ID
	cfg.Name = program.Name
	cfg.Type = program.Attributes.Type
	cfg.Currencies = objects(program.LoyaltyProgramCurrencies)
	if program.LoyaltyTierGroups != nil {
		for _, g := range program.LoyaltyTierGroups.Records {
			cfg.TierGroups = append(cfg.TierGroups, domain.TierGroup{
				ProgramObject: g.toObject(),
				Tiers:         objects(g.LoyaltyTiers),
			})
		}
	}

	return cfg, nil
}

func (c *Client) query(ctx context.Context, soql string, dst any) error {
	result := c.Query(ctx, soql)
	if !result.OK {
		return fmt.Errorf("query failed with status %d: %s", result.StatusCode, result.ErrorMessage)
	}
	if err := json.Unmarshal(result.Body, dst); err != nil {
		return fmt.Errorf("decode query response: %w", err)
	}
	return nil
}

func objects(r *queryResult[queryRecord]) []domain.ProgramObject {
	out := []domain.ProgramObject{}
	if r == nil {
		return out
	}
	for _, rec := range r.Records {
		out = append(out, rec.toObject())
	}
	return out
}
