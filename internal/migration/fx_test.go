package migration

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	invoicedomain "github.com/kilatlabs/nusabill/internal/invoice/domain"
	paymentdomain "github.com/kilatlabs/nusabill/internal/payment/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// The fallback schema must carry every table the engine writes, including
// the bookkeeping ones no domain model graph reaches.
func TestAutoMigrateCoversBookkeepingTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, autoMigrate(db))

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	counter := invoicedomain.InvoiceCounter{OrgID: node.Generate(), Year: 2025, Seq: 1}
	require.NoError(t, db.Create(&counter).Error)

	refund := paymentdomain.PaymentRefund{
		ID:        node.Generate(),
		PaymentID: node.Generate(),
		Amount:    50000,
		Reason:    "duplicate charge",
		Actor:     "ops@example.com",
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&refund).Error)
}
