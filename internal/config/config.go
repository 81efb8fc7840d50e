// Package config defines the pipeline configuration and its loading hooks.
//
// Conventions:
// - Domain settings live here and are passed into the pipeline; nothing reads globals.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error sentinels.
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/okian/cohort/internal/domain/cohort"
	"github.com/okian/cohort/internal/domain/frame"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// BasePath is the curated subject × event table.
	BasePath string `koanf:"base_path"`

	// Delimiter is the single field separator of every input file.
	Delimiter string `koanf:"delimiter"`

	// Sentinels are raw values read as missing.
	Sentinels []string `koanf:"sentinels"`

	// ColumnTypes declares column kinds (numeric, categorical, text); undeclared
	// columns are inferred.
	ColumnTypes map[string]string `koanf:"column_types"`

	// Categorical lists the columns the normalizer recasts to categorical.
	Categorical []string `koanf:"categorical"`

	Keys    Keys     `koanf:"keys"`
	Events  Events   `koanf:"events"`
	Augment []Source `koanf:"augment"`
	Cohort  Cohort   `koanf:"cohort"`
	Model   Model    `koanf:"model"`

	// GroupBy names the categorical column the report is broken down by.
	GroupBy string `koanf:"group_by"`

	Output Output `koanf:"output"`
}

// Keys names the composite key columns.
type Keys struct {
	Subject string `koanf:"subject"`
	Event   string `koanf:"event"`
}

// Events names the baseline and follow-up timepoint labels.
type Events struct {
	Baseline string `koanf:"baseline"`
	Followup string `koanf:"followup"`
}

// Source is one supplementary variable joined onto the base table.
type Source struct {
	Path     string `koanf:"path"`
	Variable string `koanf:"variable"`

	// Sentinels overrides the top-level sentinel set for this file when non-empty.
	Sentinels []string `koanf:"sentinels"`
}

// Cohort configures extraction and derivation.
type Cohort struct {
	Covariates []string `koanf:"covariates"`
	Outcome    string   `koanf:"outcome"`
	Sex        string   `koanf:"sex"`
	SexMale    string   `koanf:"sex_male"`
	SexFemale  string   `koanf:"sex_female"`
	PDSMale    string   `koanf:"pds_male"`
	PDSFemale  string   `koanf:"pds_female"`
	PDS        string   `koanf:"pds"`
	Income     string   `koanf:"income"`
	IncomeBand string   `koanf:"income_band"`

	// Policy is propagate or strict, applied when sex is missing.
	Policy string `koanf:"policy"`
}

// Model names the regression handed to the reporting stage.
type Model struct {
	Response string   `koanf:"response"`
	Fixed    []string `koanf:"fixed"`
	Groups   []string `koanf:"groups"`
}

// Output names the files a run writes. Empty paths are skipped.
type Output struct {
	CSV         string `koanf:"csv"`
	SQLite      string `koanf:"sqlite"`
	SQLiteTable string `koanf:"sqlite_table"`
	Report      string `koanf:"report"`
	Metrics     string `koanf:"metrics"`
}

// New creates a Config with the study defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Delimiter: ",",
		Sentinels: append([]string(nil), frame.DefaultSentinels...),
		ColumnTypes: map[string]string{
			"subject_id": "text",
		},
		Categorical: []string{
			"event_name", "rel_family_id", "site_id_l", "mri_info_deviceserialnumber",
			"demo_sex_v2", "pds_p_ss_male_category_2", "pds_p_ss_female_category_2",
		},
		Keys: Keys{Subject: "subject_id", Event: "event_name"},
		Events: Events{
			Baseline: "baseline_year_1_arm_1",
			Followup: "3_year_follow_up_y_arm_1",
		},
		Cohort: Cohort{
			Covariates: []string{
				"subject_id", "rel_family_id", "site_id_l", "mri_info_deviceserialnumber",
				"interview_age", "demo_sex_v2", "demo_comb_income_v2",
				"pds_p_ss_male_category_2", "pds_p_ss_female_category_2",
				"devhx_10_prenatal_exposure", "reshist_addr1_coi_z_coi_nat",
				"nihtbx_totalcomp_uncorrected", "cbcl_scr_syn_external_t",
				"smri_vol_scs_amygdalalh", "smri_vol_scs_hpuslh",
			},
			Outcome:    "su_any_use",
			Sex:        "demo_sex_v2",
			SexMale:    "1",
			SexFemale:  "2",
			PDSMale:    "pds_p_ss_male_category_2",
			PDSFemale:  "pds_p_ss_female_category_2",
			PDS:        "pds",
			Income:     "demo_comb_income_v2",
			IncomeBand: "income_band",
			Policy:     cohort.Propagate.String(),
		},
		Output: Output{SQLiteTable: "cohort"},
	}
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// Kinds parses ColumnTypes.
func (c *Config) Kinds() (map[string]frame.Kind, error) {
	out := make(map[string]frame.Kind, len(c.ColumnTypes))
	for name, s := range c.ColumnTypes {
		k, err := frame.ParseKind(s)
		if err != nil {
			return nil, fmt.Errorf("%w: column_types.%s: %w", ErrInvalidConfig, name, err)
		}
		out[name] = k
	}
	return out, nil
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	required := []struct{ key, value string }{
		{"base_path", c.BasePath},
		{"keys.subject", c.Keys.Subject},
		{"keys.event", c.Keys.Event},
		{"events.baseline", c.Events.Baseline},
		{"events.followup", c.Events.Followup},
		{"cohort.outcome", c.Cohort.Outcome},
		{"cohort.sex", c.Cohort.Sex},
		{"cohort.pds_male", c.Cohort.PDSMale},
		{"cohort.pds_female", c.Cohort.PDSFemale},
		{"cohort.pds", c.Cohort.PDS},
		{"cohort.income", c.Cohort.Income},
		{"cohort.income_band", c.Cohort.IncomeBand},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, r.key)
		}
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidConfig, c.Delimiter)
	}
	if c.Events.Baseline == c.Events.Followup {
		return fmt.Errorf("%w: baseline and follow-up labels are both %q", ErrInvalidConfig, c.Events.Baseline)
	}
	if _, err := c.Kinds(); err != nil {
		return err
	}
	if _, err := cohort.ParsePolicy(c.Cohort.Policy); err != nil {
		return fmt.Errorf("%w: cohort.policy: %w", ErrInvalidConfig, err)
	}
	for i, s := range c.Augment {
		if s.Path == "" || s.Variable == "" {
			return fmt.Errorf("%w: augment[%d] needs path and variable", ErrInvalidConfig, i)
		}
	}
	if c.Output.SQLite != "" && c.Output.SQLiteTable == "" {
		return fmt.Errorf("%w: output.sqlite_table must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
