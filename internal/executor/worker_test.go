package executor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rebased/rebased-api/internal/db"
	"github.com/rebased/rebased-api/internal/engine"
	"github.com/rebased/rebased-api/internal/mocks"
	"github.com/rebased/rebased-api/internal/portfolio"
	"github.com/rebased/rebased-api/internal/strategy"
)

const (
	testWethAddress = "0xb5a30b0fdc5ea94a52fdc42e3e9760cb8449fb37"
	testUsdcAddress = "0xf817257fed379853cde0fa4f97ab987181b1e5ea"
	testOwner       = "0x4444444444444444444444444444444444444444"
)

func executableStrategy(t *testing.T) db.Strategy {
	t.Helper()

	blocks, err := json.Marshal([]strategy.Block{
		{ID: "a1", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "WETH", Address: testWethAddress, Decimals: 18, TargetWeightPercent: 60,
		}},
		{ID: "a2", Type: strategy.BlockTypeAsset, Asset: &strategy.AssetBlock{
			Symbol: "USDC", Address: testUsdcAddress, Decimals: 6, TargetWeightPercent: 40,
		}},
		{ID: "act1", Type: strategy.BlockTypeAction, Action: &strategy.ActionBlock{
			ActionType: strategy.ActionRebalance, IntervalSeconds: 3600,
		}},
	})
	require.NoError(t, err)

	return db.Strategy{
		ID:                       uuid.New(),
		UserID:                   uuid.New(),
		Name:                     "core holdings",
		ChainID:                  10143,
		OwnerAddress:             "0x1111111111111111111111111111111111111111",
		SmartAccountAddress:      pgtype.Text{String: testOwner, Valid: true},
		Blocks:                   blocks,
		Connections:              json.RawMessage(`[]`),
		IsActive:                 true,
		RebalanceIntervalSeconds: 3600,
	}
}

// testCoordinator builds a coordinator whose downstream collaborators are
// never reached by the paths under test; any unexpected store call fails the
// mock controller.
func testCoordinator(t *testing.T, queries db.Querier) *Coordinator {
	t.Helper()
	analyzer := portfolio.NewAnalyzer(mocks.NewMockReaderForTest(t), nil)
	return NewCoordinator(
		queries, analyzer, engine.NewConditionEvaluator(), engine.NewPlanner(),
		nil, nil, nil, NewMemoryQueue(1), nil, CoordinatorConfig{},
	)
}

func TestProcessJobDropsStrategyWithoutDelegation(t *testing.T) {
	queries := mocks.NewMockQuerierForTest(t)
	record := executableStrategy(t)

	queries.EXPECT().GetStrategy(gomock.Any(), record.ID).Return(record, nil)
	queries.EXPECT().
		GetActiveDelegationForStrategy(gomock.Any(), record.ID).
		Return(db.Delegation{}, pgx.ErrNoRows)

	// The job must stop cold: no analysis, no rebalance record, no trade.
	testCoordinator(t, queries).processJob(context.Background(), testJob(record.ID))
}

func TestProcessJobDropsInactiveStrategy(t *testing.T) {
	queries := mocks.NewMockQuerierForTest(t)
	record := executableStrategy(t)
	record.IsActive = false

	queries.EXPECT().GetStrategy(gomock.Any(), record.ID).Return(record, nil)

	testCoordinator(t, queries).processJob(context.Background(), testJob(record.ID))
}

func TestProcessJobHonorsCooldown(t *testing.T) {
	queries := mocks.NewMockQuerierForTest(t)
	record := executableStrategy(t)

	queries.EXPECT().GetStrategy(gomock.Any(), record.ID).Return(record, nil)
	queries.EXPECT().
		GetActiveDelegationForStrategy(gomock.Any(), record.ID).
		Return(db.Delegation{ID: uuid.New(), StrategyID: pgtype.UUID{Bytes: record.ID, Valid: true}, IsActive: true}, nil)
	queries.EXPECT().
		GetLatestSuccessfulRebalance(gomock.Any(), record.ID).
		Return(db.RebalanceRecord{
			Status:      db.RebalanceStatusSuccess,
			CompletedAt: pgtype.Timestamptz{Time: time.Now().Add(-time.Minute), Valid: true},
		}, nil)

	// Last success a minute ago against a 3600s interval: still cooling down.
	testCoordinator(t, queries).processJob(context.Background(), testJob(record.ID))
}

func TestCheckCooldownUsesLongerOfStrategyIntervalAndFloor(t *testing.T) {
	queries := mocks.NewMockQuerierForTest(t)
	record := executableStrategy(t)
	c := testCoordinator(t, queries)

	queries.EXPECT().
		GetLatestSuccessfulRebalance(gomock.Any(), record.ID).
		Return(db.RebalanceRecord{
			Status:      db.RebalanceStatusSuccess,
			CompletedAt: pgtype.Timestamptz{Time: time.Now().Add(-2 * time.Hour), Valid: true},
		}, nil)

	assert.NoError(t, c.checkCooldown(context.Background(), record))

	queries.EXPECT().
		GetLatestSuccessfulRebalance(gomock.Any(), record.ID).
		Return(db.RebalanceRecord{}, pgx.ErrNoRows)

	// A strategy that has never executed has no cooldown.
	assert.NoError(t, c.checkCooldown(context.Background(), record))
}

func TestRetryableClassification(t *testing.T) {
	assert.False(t, retryable(nil))
	assert.False(t, retryable(ErrTxReverted))
	assert.True(t, retryable(ErrNothingToExecute))
	assert.True(t, retryable(context.DeadlineExceeded))
}
