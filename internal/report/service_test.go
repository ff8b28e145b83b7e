package report

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/epin/field"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
	"github.com/openclearing/epinflow/internal/storage/recorddb/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Open(context.Background()))
	svc, err := NewService(store, 8)
	require.NoError(t, err)
	return svc, store
}

func insertVss110(t *testing.T, store *memory.Store, rec *epin.Vss110Record) {
	t.Helper()
	require.NoError(t, store.Vss110().Insert(context.Background(), rec))
}

func TestServiceVss110StatsCaches(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	insertVss110(t, store, vss110Record("I", "1", 10, "100.00", "0.00", "100.00", field.SignCredit))

	first, err := svc.Vss110Stats(ctx, recorddb.Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(10), first.AmountTypes[0].Modes[0].CreditCount)

	// A record landing without invalidation is not visible: cache hit
	insertVss110(t, store, vss110Record("I", "1", 5, "50.00", "0.00", "50.00", field.SignCredit))
	second, err := svc.Vss110Stats(ctx, recorddb.Filter{})
	require.NoError(t, err)
	require.Same(t, first, second)

	// Invalidation forces a rebuild that sees both records
	svc.Invalidate()
	third, err := svc.Vss110Stats(ctx, recorddb.Filter{})
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, int64(15), third.AmountTypes[0].Modes[0].CreditCount)
}

func TestServiceDistinctFiltersCacheSeparately(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	a := vss110Record("I", "1", 1, "10.00", "0.00", "10.00", field.SignCredit)
	a.CurrencyCode = "840"
	b := vss110Record("I", "1", 2, "20.00", "0.00", "20.00", field.SignCredit)
	b.CurrencyCode = "978"
	insertVss110(t, store, a)
	insertVss110(t, store, b)

	usd, err := svc.Vss110Stats(ctx, recorddb.Filter{CurrencyCode: "840"})
	require.NoError(t, err)
	require.Equal(t, int64(1), usd.AmountTypes[0].Modes[0].CreditCount)

	eur, err := svc.Vss110Stats(ctx, recorddb.Filter{CurrencyCode: "978"})
	require.NoError(t, err)
	require.Equal(t, int64(2), eur.AmountTypes[0].Modes[0].CreditCount)
}

func TestServiceVss120ReportJoinsChildren(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	jobID := uuid.New()

	parent := sub4Record("120", "1", "123", "1")
	parent.Envelope = epin.NewEnvelope(jobID, "p", 1)
	require.NoError(t, store.SubGroup4().Insert(ctx, parent))

	child := tcr1Record(10, "250.00", field.SignCredit, "300.00", "50.00")
	child.Envelope = epin.NewEnvelope(jobID, "c", 2)
	id := parent.ID
	child.ParentID = &id
	require.NoError(t, store.Tcr1().Insert(ctx, child))

	r, err := svc.Vss120Report(ctx, recorddb.Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(10), r.Totals.Count)
	require.Equal(t, "250.00", r.Totals.Clearing.StringFixed(2))

	// Empty families build empty trees rather than erroring
	r130, err := svc.Vss130Report(ctx, recorddb.Filter{})
	require.NoError(t, err)
	require.Empty(t, r130.Modes)

	r140, err := svc.Vss140Report(ctx, recorddb.Filter{})
	require.NoError(t, err)
	require.Empty(t, r140.Modes)
}
