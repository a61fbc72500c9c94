package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/kilatlabs/nusabill/internal/catalog/domain"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func testPackage(node *snowflake.Node, trialDays int) catalogdomain.SubscriptionPackage {
	return catalogdomain.SubscriptionPackage{
		ID:           node.Generate(),
		Code:         "growth",
		Name:         "Growth",
		Tier:         "growth",
		MonthlyPrice: 99000,
		YearlyPrice:  990000,
		TrialDays:    trialDays,
		Active:       true,
	}
}
