package validate

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/redlinedata/redline/pkg/errors"
)

// Rules declares the store's schema constraints by column. Column names are
// matched case-insensitively except for protected columns, which match
// exactly. Columns not named by any rule are accepted unless RejectUnknown
// is set.
type Rules struct {
	// Booleans lists columns restricted to true or false.
	Booleans []string `yaml:"booleans"`

	// Enums maps a column to its closed set of allowed values.
	Enums map[string][]string `yaml:"enums"`

	// Strings lists columns holding free text. The list exists so known
	// columns can be told apart from unknown ones.
	Strings []string `yaml:"strings"`

	// Patterns maps a column to regular expressions; a value is accepted
	// when it matches at least one.
	Patterns map[string][]string `yaml:"patterns"`

	// Protected lists columns that must never change.
	Protected []string `yaml:"protected"`

	// RejectUnknown makes edits to columns no rule names a violation.
	RejectUnknown bool `yaml:"reject_unknown"`
}

// BIDS filename shapes accepted by the default rules: anatomical images,
// anatomical images with a modality suffix, and functional images.
const (
	bidsAnat = `^sub-(?P<subject_id>[a-zA-Z0-9]+)(_ses-(?P<session_id>[a-zA-Z0-9]+))?(_acq-(?P<acquisition_label>[a-zA-Z0-9]+))?(_ce-(?P<contrastenhanced_id>[a-zA-Z0-9]+))?(_rec-(?P<reconstruction_id>[a-zA-Z0-9]+))?(_run-(?P<run_id>[a-zA-Z0-9]+))?(_(?P<modality>[a-zA-Z0-9]+))?((?P<suffix>\.nii(\.gz)?))$`
	bidsMod  = `^sub-(?P<subject_id>[a-zA-Z0-9]+)(_ses-(?P<session_id>[a-zA-Z0-9]+))?(_acq-(?P<acquisition_label>[a-zA-Z0-9]+))?(_ce-(?P<contrastenhanced_id>[a-zA-Z0-9]+))?(_rec-(?P<reconstruction_id>[a-zA-Z0-9]+))?(_run-(?P<run_id>[a-zA-Z0-9]+))?(_mod-(?P<modality>[a-zA-Z0-9]+))?(_(?P<suffix>[a-zA-Z0-9]+\.nii(\.gz)?))$`
	bidsFunc = `^sub-(?P<subject_id>[a-zA-Z0-9]+)(_ses-(?P<session_id>[a-zA-Z0-9]+))?(_task-(?P<task_label>[a-zA-Z0-9]+))?(_acq-(?P<acquisition_label>[a-zA-Z0-9]+))?(_ce-(?P<contrastenhanced_id>[a-zA-Z0-9]+))?(_dir-(?P<direction>[a-zA-Z0-9]+))?(_rec-(?P<reconstruction_id>[a-zA-Z0-9]+))?(_run-(?P<run_id>[a-zA-Z0-9]+))?(_echo-(?P<echo_id>[a-zA-Z0-9]+))?(_(?P<contrast_label>[a-zA-Z0-9]+))?((?P<suffix>\.nii(\.gz)?))$`
)

// Default returns the rule set for BIDS-curated imaging stores.
func Default() *Rules {
	return &Rules{
		Booleans: []string{"ignore", "valid"},
		Enums: map[string][]string{
			"modality": {"", "mr", "ct", "pet", "us", "eeg", "ieeg", "x-ray", "ecg", "meg", "nirs"},
		},
		Strings: []string{
			"acquisition.label", "project.label", "error_message",
			"subject.label", "folder", "template",
			"intendedfor", "mod", "path", "rec", "task", "run",
		},
		Patterns: map[string][]string{
			"filename": {bidsAnat, bidsMod, bidsFunc},
		},
		Protected: []string{"acquisition.id"},
	}
}

// LoadFile reads a rule set from a YAML file.
func LoadFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &rules, nil
}
