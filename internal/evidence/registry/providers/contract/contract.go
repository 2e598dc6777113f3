// Package contract runs the shared checks every provider implementation
// must pass, whatever upstream it talks to.
package contract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/evidence/registry/providers"
)

const lookupTimeout = 5 * time.Second

// ContractTest is one successful lookup and the checks applied to its evidence.
type ContractTest struct {
	Name         string
	Input        map[string]string
	ValidateFunc func(t *testing.T, evidence *providers.Evidence)
}

// ContractSuite runs success-path lookups against one provider.
type ContractSuite struct {
	Provider     providers.Provider
	ExpectedType providers.ProviderType
	Tests        []ContractTest
}

// Run executes all contract tests in the suite.
func (s *ContractSuite) Run(t *testing.T) {
	t.Helper()
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
			defer cancel()

			evidence, err := s.Provider.Lookup(ctx, test.Input)
			require.NoError(t, err, "provider lookup failed")
			require.NotNil(t, evidence)

			assert.Equal(t, s.Provider.ID(), evidence.ProviderID, "evidence must name its provider")
			assert.Equal(t, s.ExpectedType, evidence.ProviderType)
			assert.GreaterOrEqual(t, evidence.Confidence, 0.0)
			assert.LessOrEqual(t, evidence.Confidence, 1.0)
			assert.False(t, evidence.CheckedAt.IsZero(), "CheckedAt not set")

			if test.ValidateFunc != nil {
				test.ValidateFunc(t, evidence)
			}
		})
	}
}

// CapabilityTest checks that a provider declares what it supports.
type CapabilityTest struct {
	Provider providers.Provider
}

// Run executes the capability checks.
func (ct *CapabilityTest) Run(t *testing.T) {
	t.Helper()
	caps := ct.Provider.Capabilities()

	assert.NotEmpty(t, caps.Protocol, "protocol not set")
	assert.NotEmpty(t, caps.Type, "type not set")
	assert.NotEmpty(t, caps.Version, "version not set")
	assert.NotEmpty(t, caps.Fields, "no field capabilities declared")
	assert.NotEmpty(t, caps.Filters, "no filters declared")
	for _, f := range caps.Fields {
		if f.Filterable {
			assert.Contains(t, caps.Filters, f.FieldName, "filterable field %s missing from filters", f.FieldName)
		}
	}
}

// ErrorContractTest checks that a failing lookup maps onto the error taxonomy.
type ErrorContractTest struct {
	Name          string
	Provider      providers.Provider
	Input         map[string]string
	ExpectedError providers.ErrorCategory
	ExpectedRetry bool
}

// Run executes the error contract check.
func (ect *ErrorContractTest) Run(t *testing.T) {
	t.Helper()
	t.Run(ect.Name, func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		_, err := ect.Provider.Lookup(ctx, ect.Input)
		require.Error(t, err)
		assert.Equal(t, ect.ExpectedError, providers.GetCategory(err))
		assert.Equal(t, ect.ExpectedRetry, providers.IsRetryable(err))
	})
}
