package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jittakal/ordersetl/internal/errors"
)

type fakeGlue struct {
	started []string
	err     error
}

func (f *fakeGlue) StartCrawler(ctx context.Context, in *glue.StartCrawlerInput, _ ...func(*glue.Options)) (*glue.StartCrawlerOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.started = append(f.started, aws.ToString(in.Name))
	return &glue.StartCrawlerOutput{}, nil
}

type countingMetrics struct {
	starts map[string]int
}

func (c *countingMetrics) IncCrawlerStarts(status string) {
	if c.starts == nil {
		c.starts = make(map[string]int)
	}
	c.starts[status]++
}

func TestGlueTrigger_Start(t *testing.T) {
	fake := &fakeGlue{}
	metrics := &countingMetrics{}
	trigger := newGlueTrigger(fake, nil, metrics)

	require.NoError(t, trigger.Start(context.Background(), DefaultCrawlerName))
	require.NoError(t, trigger.Start(context.Background(), DefaultCrawlerName))

	// No dedup: every call reaches the service.
	assert.Equal(t, []string{"etl_pipeline_crawler", "etl_pipeline_crawler"}, fake.started)
	assert.Equal(t, 2, metrics.starts["success"])
}

func TestGlueTrigger_StartError(t *testing.T) {
	running := &types.CrawlerRunningException{Message: aws.String("crawler is running")}
	fake := &fakeGlue{err: running}
	metrics := &countingMetrics{}
	trigger := newGlueTrigger(fake, nil, metrics)

	err := trigger.Start(context.Background(), "c1")
	require.Error(t, err)

	var catalogErr *apperrors.CatalogError
	require.ErrorAs(t, err, &catalogErr)
	assert.Equal(t, "c1", catalogErr.Crawler)

	var runningErr *types.CrawlerRunningException
	assert.True(t, errors.As(err, &runningErr))
	assert.Equal(t, apperrors.StageCatalog, apperrors.Stage(err))
	assert.Equal(t, 1, metrics.starts["error"])
}

func TestNoopTrigger(t *testing.T) {
	assert.NoError(t, NewNoopTrigger(nil).Start(context.Background(), "anything"))
}

func TestNew(t *testing.T) {
	trigger, err := New(context.Background(), Config{Provider: ProviderNoop}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &NoopTrigger{}, trigger)

	_, err = New(context.Background(), Config{Provider: "hive"}, nil, nil)
	assert.Error(t, err)
}
