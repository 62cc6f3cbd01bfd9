package domain

import "strings"

// Object types understood by ProgramConfig.FindID.
const (
	ObjectLoyaltyProgram         = "LoyaltyProgram"
	ObjectLoyaltyProgramCurrency = "LoyaltyProgramCurrency"
	ObjectLoyaltyTierGroup       = "LoyaltyTierGroup"
	ObjectLoyaltyTier            = "LoyaltyTier"
	ObjectJournalType            = "JournalType"
	ObjectJournalSubtype         = "JournalSubType"
)

type ProgramObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type TierGroup struct {
	ProgramObject
	Tiers []ProgramObject `json:"loyaltyTiers"`
}

// ProgramConfig is the cached id lookup for the loyalty program, refreshed by the data-sync job.
type ProgramConfig struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Currencies      []ProgramObject `json:"loyaltyProgramCurrencies"`
	TierGroups      []TierGroup     `json:"loyaltyTierGroups"`
	JournalTypes    []ProgramObject `json:"journalTypes"`
	JournalSubtypes []ProgramObject `json:"journalSubtypes"`
}

// FindID looks up an object id by type and name. Both comparisons ignore case.
func (c *ProgramConfig) FindID(objectType, name string) (string, bool) {
	var search []ProgramObject

	switch strings.ToLower(objectType) {
	case strings.ToLower(ObjectLoyaltyProgram):
		if strings.EqualFold(c.Name, name) && c.ID != "" {
			return c.ID, true
		}
		return "", false
	case strings.ToLower(ObjectLoyaltyProgramCurrency):
		search = c.Currencies
	case strings.ToLower(ObjectLoyaltyTierGroup):
		for _, g := range c.TierGroups {
			search = append(search, g.ProgramObject)
		}
	case strings.ToLower(ObjectLoyaltyTier):
		for _, g := range c.TierGroups {
			search = append(search, g.Tiers...)
		}
	case strings.ToLower(ObjectJournalType):
		search = c.JournalTypes
	case strings.ToLower(ObjectJournalSubtype):
		search = c.JournalSubtypes
	default:
		return "", false
	}

	for _, o := range search {
		if strings.EqualFold(o.Name, name) {
			return o.ID, true
		}
	}
	return "", false
}
