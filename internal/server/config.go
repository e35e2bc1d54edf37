package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/table"
)

// Config is the complete server configuration.
type Config struct {
	Server Settings      `hcl:"server,block"`
	Tables []TableConfig `hcl:"table,block"`
}

// Settings holds server-level configuration.
type Settings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	AuditDB     string `hcl:"audit_db,optional"`
	SnapshotDir string `hcl:"snapshot_dir,optional"`
}

// TableConfig configures one table. Delays are in milliseconds. An omitted
// delay uses the default and zero runs the step immediately.
type TableConfig struct {
	Name             string `hcl:"name,label"`
	DealerHitsSoft17 bool   `hcl:"dealer_hits_soft_17,optional"`
	Decks            int    `hcl:"decks,optional"`
	MinBet           int    `hcl:"min_bet,optional"`
	MaxBet           int    `hcl:"max_bet,optional"`
	SurrenderAllowed bool   `hcl:"surrender_allowed,optional"`
	DealDelayMS      *int   `hcl:"deal_delay_ms,optional"`
	DealerDelayMS    *int   `hcl:"dealer_delay_ms,optional"`
	ResetDelayMS     *int   `hcl:"reset_delay_ms,optional"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	rules := game.DefaultRules()
	return &Config{
		Server: Settings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Tables: []TableConfig{
			{
				Name:   "main",
				Decks:  rules.NumberOfDecks,
				MinBet: rules.MinBet,
				MaxBet: rules.MaxBet,
			},
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// DefaultConfig.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	defaults := game.DefaultRules()
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Decks == 0 {
			t.Decks = defaults.NumberOfDecks
		}
		if t.MinBet == 0 {
			t.MinBet = defaults.MinBet
		}
		if t.MaxBet == 0 {
			t.MaxBet = max(defaults.MaxBet, t.MinBet)
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if t.Name == "" {
			return fmt.Errorf("table name must not be empty")
		}
		if seen[t.Name] {
			return fmt.Errorf("table %s: duplicate name", t.Name)
		}
		seen[t.Name] = true

		if t.Decks < deck.MinDecks || t.Decks > deck.MaxDecks {
			return fmt.Errorf("table %s: decks must be between %d and %d", t.Name, deck.MinDecks, deck.MaxDecks)
		}
		if t.MinBet <= 0 {
			return fmt.Errorf("table %s: min bet must be positive", t.Name)
		}
		if t.MaxBet < t.MinBet {
			return fmt.Errorf("table %s: max bet must not be less than min bet", t.Name)
		}
		if t.MaxBet > game.MaxWager {
			return fmt.Errorf("table %s: max bet must not exceed %d", t.Name, game.MaxWager)
		}
		for name, ms := range map[string]*int{
			"deal_delay_ms":   t.DealDelayMS,
			"dealer_delay_ms": t.DealerDelayMS,
			"reset_delay_ms":  t.ResetDelayMS,
		} {
			if ms != nil && *ms < 0 {
				return fmt.Errorf("table %s: %s must not be negative", t.Name, name)
			}
		}
	}
	return nil
}

// Address returns host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Table returns the configuration of a table by name.
func (c *Config) Table(name string) *TableConfig {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}

// Rules converts the table block into game rules.
func (t TableConfig) Rules() game.Rules {
	return game.Rules{
		DealerHitsSoft17: t.DealerHitsSoft17,
		NumberOfDecks:    t.Decks,
		MinBet:           t.MinBet,
		MaxBet:           t.MaxBet,
		SurrenderAllowed: t.SurrenderAllowed,
	}.Normalize()
}

// Delays converts the table block into staged step delays. The dealer delay
// also paces the hole card reveal.
func (t TableConfig) Delays() table.Delays {
	d := table.DefaultDelays()
	if t.DealDelayMS != nil {
		d.Deal = millis(*t.DealDelayMS)
	}
	if t.DealerDelayMS != nil {
		d.Dealer = millis(*t.DealerDelayMS)
		d.Reveal = d.Dealer
	}
	if t.ResetDelayMS != nil {
		d.Reset = millis(*t.ResetDelayMS)
	}
	return d
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// SetAddress overrides the listen address from a host:port string.
func (c *Config) SetAddress(hostport string) error {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", hostport, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port in address %q", hostport)
	}
	c.Server.Address = host
	c.Server.Port = p
	return nil
}
