package pricefeed

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halalinvest/src/catalog"
)

func TestPriceFeedPrintsEveryTick(t *testing.T) {
	var out bytes.Buffer
	feed := &PriceFeed{
		Log:    logrus.WithField("cmd", "pricefeed"),
		Out:    &out,
		Period: time.Millisecond,
		Ticks:  2,
	}

	c := catalog.New(catalog.Default())
	require.NoError(t, feed.run(context.Background(), c))

	text := out.String()
	assert.Contains(t, text, "tick 1\n")
	assert.Contains(t, text, "tick 2\n")
	assert.Equal(t, 2, strings.Count(text, "AAPL"))
	assert.Equal(t, 2*c.Len(), strings.Count(text, "$"))
}

func TestPriceFeedStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	feed := &PriceFeed{Log: logrus.WithField("cmd", "pricefeed"), Out: &out, Period: time.Hour, Ticks: 5}
	require.NoError(t, feed.run(ctx, catalog.New(catalog.Default())))
	assert.Equal(t, 1, strings.Count(out.String(), "tick "))
}
