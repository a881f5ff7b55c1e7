// Package deployment assembles a complete in-process deployment (identity
// registries, trusted issuers, identities with claims, compliance modules
// and tokens) from a declarative YAML description. The server bootstraps
// from it and the simulator CLI runs scenarios against it.
package deployment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Module kinds accepted in ModuleSpec.Kind.
const (
	KindCountryAllowList  = "CountryAllowList"
	KindCountryBlockList  = "CountryBlockList"
	KindAddressBlockList  = "AddressBlockList"
	KindIdentityBlockList = "IdentityBlockList"
	KindSupplyLimit       = "SupplyLimit"
	KindExpression        = "Expression"
)

// Spec is the declarative deployment.
type Spec struct {
	// Admin administers every registry, the trusted issuers and the
	// module catalog.
	Admin      string         `yaml:"admin"`
	Registries []RegistrySpec `yaml:"registries"`
	Issuers    []IssuerSpec   `yaml:"issuers,omitempty"`
	Identities []IdentitySpec `yaml:"identities,omitempty"`
	Modules    []ModuleSpec   `yaml:"modules,omitempty"`
	Tokens     []TokenSpec    `yaml:"tokens"`
}

type RegistrySpec struct {
	Address    string   `yaml:"address"`
	Registrars []string `yaml:"registrars,omitempty"`
}

// IssuerSpec declares a trusted claim issuer. Key is a hex secp256k1 key;
// a fresh key is generated when it is empty.
type IssuerSpec struct {
	Address string   `yaml:"address"`
	Topics  []uint64 `yaml:"topics"`
	Key     string   `yaml:"key,omitempty"`
}

// IdentitySpec registers wallet in registry. Identity defaults to an
// address derived from the registry and wallet.
type IdentitySpec struct {
	Wallet   string      `yaml:"wallet"`
	Registry string      `yaml:"registry"`
	Identity string      `yaml:"identity,omitempty"`
	Country  int         `yaml:"country"`
	Claims   []ClaimSpec `yaml:"claims,omitempty"`
}

type ClaimSpec struct {
	Issuer string `yaml:"issuer"`
	Topic  uint64 `yaml:"topic"`
	Data   string `yaml:"data,omitempty"`
}

// ModuleSpec deploys one compliance module. Countries and Addresses seed
// the global lists of the list-based kinds.
type ModuleSpec struct {
	Address   string   `yaml:"address"`
	Kind      string   `yaml:"kind"`
	Countries []int    `yaml:"countries,omitempty"`
	Addresses []string `yaml:"addresses,omitempty"`
}

type TokenSpec struct {
	Address  string              `yaml:"address"`
	Name     string              `yaml:"name"`
	Symbol   string              `yaml:"symbol"`
	Decimals uint8               `yaml:"decimals"`
	Cap      string              `yaml:"cap,omitempty"`
	Registry string              `yaml:"registry"`
	Topics   []uint64            `yaml:"topics,omitempty"`
	Admin    string              `yaml:"admin,omitempty"`
	Roles    map[string][]string `yaml:"roles,omitempty"`
	Modules  []TokenModuleSpec   `yaml:"modules,omitempty"`
}

// TokenModuleSpec binds a deployed module to a token. Which parameter
// field applies depends on the module kind.
type TokenModuleSpec struct {
	Module     string   `yaml:"module"`
	Countries  []int    `yaml:"countries,omitempty"`
	Addresses  []string `yaml:"addresses,omitempty"`
	Limit      string   `yaml:"limit,omitempty"`
	Expression string   `yaml:"expression,omitempty"`
}

// Load reads a deployment description from path.
func Load(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deployment: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a deployment description. Unknown fields are rejected.
func Parse(raw []byte) (*Spec, error) {
	var spec Spec
	if err := Decode(bytes.NewReader(raw), &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Decode strictly decodes one YAML document from r into out.
func Decode(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("deployment is empty")
		}
		return fmt.Errorf("parse deployment: %w", err)
	}
	return nil
}
