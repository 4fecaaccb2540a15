package dataload

import (
	"os"

	"gopkg.in/yaml.v3"

	internalerrors "crashlens/internal/errors"
)

// Mapping names the source-file columns for each record field. An empty
// column name means the dataset does not carry that field. The injury
// count columns are the only hard requirement: a record set without
// outcomes has nothing to estimate.
type Mapping struct {
	Date       string `yaml:"date"`
	Time       string `yaml:"time"`
	DateLayout string `yaml:"date_layout"`

	Injured string `yaml:"injured"`
	Killed  string `yaml:"killed"`

	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`

	Borough        string `yaml:"borough"`
	Factor1        string `yaml:"factor1"`
	Factor2        string `yaml:"factor2"`
	VehicleType    string `yaml:"vehicle_type"`
	PreCrashAction string `yaml:"pre_crash"`
	DriverSex      string `yaml:"driver_sex"`
}

// DefaultMapping matches the NYC Motor Vehicle Collisions export this
// dashboard was built around.
func DefaultMapping() Mapping {
	return Mapping{
		Date:           "CRASH DATE",
		Time:           "CRASH TIME",
		DateLayout:     "01/02/2006",
		Injured:        "NUMBER OF PERSONS INJURED",
		Killed:         "NUMBER OF PERSONS KILLED",
		Latitude:       "LATITUDE",
		Longitude:      "LONGITUDE",
		Borough:        "BOROUGH",
		Factor1:        "CONTRIBUTING FACTOR VEHICLE 1",
		Factor2:        "CONTRIBUTING FACTOR VEHICLE 2",
		VehicleType:    "VEHICLE TYPE CODE 1",
		PreCrashAction: "PRE_CRASH",
		DriverSex:      "PERSON_SEX",
	}
}

// LoadMapping reads a column mapping from a YAML file. Fields left unset in
// the file fall back to the defaults, so a mapping file only needs to name
// what differs.
func LoadMapping(path string) (Mapping, error) {
	m := DefaultMapping()
	data, err := os.ReadFile(path)
	if err != nil {
		return m, internalerrors.Wrapf(err, "failed to read mapping file %s", path)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, internalerrors.Wrapf(err, "failed to parse mapping file %s", path)
	}
	if m.Injured == "" {
		return m, internalerrors.DataInvalid("mapping must name the injured-count column")
	}
	if m.DateLayout == "" {
		m.DateLayout = "01/02/2006"
	}
	return m, nil
}
