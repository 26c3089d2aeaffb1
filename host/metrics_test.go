package host

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Metrics(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p := NewProcessor(NewMemStore(), DefaultConfig(LabelKey("program")), nil, WithMetrics(m))

	v, err := Deploy(p, Deployment{Name: "metrics", BaseDecimals: 6})
	require.NoError(err)
	u, err := OpenUser(p, v, "alice", 6, 100)
	require.NoError(err)

	_, err = p.Process(v.Deposit(u, 40, 6))
	require.NoError(err)
	_, err = p.Process(v.Withdraw(u, 41, 6))
	require.Error(err)
	_, err = p.Process(Instruction{Data: []byte{9}})
	require.Error(err)

	require.Equal(1.0, testutil.ToFloat64(m.Instructions.WithLabelValues("init", "ok")))
	require.Equal(1.0, testutil.ToFloat64(m.Instructions.WithLabelValues("deposit", "ok")))
	require.Equal(1.0, testutil.ToFloat64(m.Instructions.WithLabelValues("withdraw", "InsufficientShares")))
	require.Equal(1.0, testutil.ToFloat64(m.Instructions.WithLabelValues("unknown", "MalformedInput")))
	require.Equal(1.0, testutil.ToFloat64(m.TokenCalls.WithLabelValues("transfer_checked")))
	require.Equal(1.0, testutil.ToFloat64(m.TokenCalls.WithLabelValues("mint_to_checked")))
	require.Zero(testutil.ToFloat64(m.TokenCalls.WithLabelValues("burn_checked")), "failed calls are not counted")
	require.Equal(4, testutil.CollectAndCount(m.Duration))
}
