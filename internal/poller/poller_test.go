package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewbot/internal/notifier"
	"reviewbot/internal/review"
	logx "reviewbot/pkg/logx"
)

type fetchResult struct {
	payload review.Payload
	err     error
}

// scriptFetcher returns results in order and repeats the last one.
type scriptFetcher struct {
	results []fetchResult
	cursors []int64
	panics  bool
}

func (f *scriptFetcher) Fetch(_ context.Context, cursor int64) (review.Payload, error) {
	f.cursors = append(f.cursors, cursor)
	if f.panics {
		panic("boom")
	}
	i := len(f.cursors) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.payload, r.err
}

type recordingNotifier struct {
	err  error
	sent []notifier.Notification
	// failures counts attempts rejected with err.
	failures int
}

func (r *recordingNotifier) Deliver(_ context.Context, n notifier.Notification) error {
	if r.err != nil {
		r.failures++
		return review.DeliveryFailed(r.err)
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) texts() []string {
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Text)
	}
	return out
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
	// cancel is called once maxSleeps sleeps have been recorded.
	maxSleeps int
	cancel    context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.maxSleeps > 0 && len(c.sleeps) >= c.maxSleeps && c.cancel != nil {
		c.cancel()
	}
	return ctx.Err()
}

func payload(t *testing.T, raw string) fetchResult {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var p review.Payload
	require.NoError(t, dec.Decode(&p))
	return fetchResult{payload: p}
}

func newTestPoller(f Fetcher, n Deliverer, opts ...Option) *Poller {
	return New(Config{Cursor: 1}, f, n, logx.Nop(), opts...)
}

func TestScenarioStatusChangeNotifiesAndAdvancesCursor(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{
		payload(t, `{"homeworks": [{"homework_name":"hw1","status":"reviewing"}], "current_date": 100}`),
	}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	require.True(t, out.OK(), "%v", out.Err)
	assert.Equal(t, []string{`Status changed for review "hw1". Работа взята на проверку ревьюером.`}, n.texts())
	assert.Equal(t, "status", n.sent[0].Kind)
	assert.Equal(t, out.ID, n.sent[0].Cycle)
	assert.EqualValues(t, 100, p.Session().Cursor)
	assert.EqualValues(t, 100, out.Cursor)
	assert.Equal(t, "reviewing", p.Session().LastStatus)
	assert.Equal(t, []int64{1}, f.cursors)
}

func TestUnchangedStatusNotifiesOnce(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{
		payload(t, `{"homeworks": [{"homework_name":"hw1","status":"approved"}], "current_date": 100}`),
		payload(t, `{"homeworks": [{"homework_name":"hw1","status":"approved"}], "current_date": 160}`),
	}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	first := p.Cycle(context.Background())
	second := p.Cycle(context.Background())
	assert.Equal(t, 1, first.Notified)
	assert.Equal(t, 0, second.Notified)
	assert.Len(t, n.sent, 1)
	assert.Equal(t, []int64{1, 100}, f.cursors)
	assert.EqualValues(t, 160, p.Session().Cursor)
}

func TestStatusTransitionsNotifyEachTime(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{
		payload(t, `{"homeworks": [{"homework_name":"hw1","status":"reviewing"}], "current_date": 1}`),
		payload(t, `{"homeworks": [{"homework_name":"hw1","status":"rejected"}], "current_date": 2}`),
		payload(t, `{"homeworks": [{"homework_name":"hw1","status":"reviewing"}], "current_date": 3}`),
	}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)
	for i := 0; i < 3; i++ {
		p.Cycle(context.Background())
	}
	require.Len(t, n.sent, 3)
	assert.Contains(t, n.sent[1].Text, "замечания")
}

func TestScenarioEmptyItems(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{payload(t, `{"homeworks": [], "current_date": 200}`)}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	assert.True(t, out.OK())
	assert.Empty(t, n.sent)
	assert.EqualValues(t, 200, p.Session().Cursor)
}

func TestScenarioCursorOnlyResponse(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{payload(t, `{"current_date": 300}`)}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	assert.True(t, out.OK())
	assert.Zero(t, out.Items)
	assert.Empty(t, n.sent)
	assert.EqualValues(t, 300, p.Session().Cursor)
}

func TestScenarioUnknownStatusAlertsOnce(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{
		payload(t, `{"homeworks":[{"homework_name":"hw1","status":"unknown_code"}]}`),
	}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	first := p.Cycle(context.Background())
	second := p.Cycle(context.Background())

	assert.Equal(t, review.KindUnrecognizedStatus, first.Kind)
	assert.Equal(t, review.KindUnrecognizedStatus, second.Kind)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "Unexpected review status: undocumented.", n.sent[0].Text)
	assert.Equal(t, "unrecognized_status", n.sent[0].Kind)
	// No current_date: cursor stays where it was.
	assert.EqualValues(t, 1, p.Session().Cursor)
	assert.Empty(t, p.Session().LastStatus)
}

func TestAlertResentWhenTextChanges(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{
		payload(t, `{"homeworks":[{"homework_name":"hw1","status":"unknown_code"}], "current_date": 1}`),
		payload(t, `{"homeworks":[{"homework_name":"hw1","status":"other_code"}], "current_date": 2}`),
		payload(t, `{"homeworks":[{"homework_name":"hw1"}], "current_date": 3}`),
		payload(t, `{"homeworks":[{"homework_name":"hw1"}], "current_date": 4}`),
	}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)
	for i := 0; i < 4; i++ {
		p.Cycle(context.Background())
	}
	assert.Equal(t, []string{
		"Unexpected review status: undocumented.",
		"Unexpected review status: no status.",
	}, n.texts())
	assert.Equal(t, "Unexpected review status: no status.", p.Session().LastErrorText)
}

func TestMissingKeysAlertIsDeduplicated(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{payload(t, `{"error": "oops"}`)}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	p.Cycle(context.Background())
	assert.Equal(t, review.KindMissingAPIKeys, out.Kind)
	assert.Equal(t, []string{"Missing expected keys in API response."}, n.texts())
	assert.EqualValues(t, 1, p.Session().Cursor)
}

func TestScenarioEndpointUnavailable(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{{err: review.EndpointUnavailable("missing credentials", nil)}}}
	n := &recordingNotifier{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &fakeClock{now: time.Unix(1000, 0), maxSleeps: 2, cancel: cancel}
	p := New(Config{Cursor: 42, Schedule: cron.Every(DefaultInterval)}, f, n, logx.Nop(), WithClock(clock))

	var outs []Outcome
	p.hooks = append(p.hooks, func(o Outcome) { outs = append(outs, o) })

	require.NoError(t, p.Run(ctx))
	require.Len(t, outs, 2)
	for _, o := range outs {
		assert.Equal(t, review.KindEndpointUnavailable, o.Kind)
	}
	assert.Empty(t, n.sent)
	assert.EqualValues(t, 42, p.Session().Cursor)
	assert.Equal(t, []int64{42, 42}, f.cursors)
	assert.Equal(t, []time.Duration{DefaultInterval, DefaultInterval}, clock.sleeps)
}

func TestTypeMismatchIsLoggedOnly(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{payload(t, `{"homeworks": {"hw1": "approved"}, "current_date": 9}`)}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	assert.Equal(t, review.KindTypeMismatch, out.Kind)
	assert.Empty(t, n.sent)
	assert.EqualValues(t, 1, p.Session().Cursor)
}

func TestMissingNameIsLoggedOnly(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{payload(t, `{"homeworks": [{"status":"approved"}], "current_date": 9}`)}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	assert.Equal(t, review.KindMissingItemName, out.Kind)
	assert.Empty(t, n.sent)
	// The cursor advances even though extraction failed later in the cycle.
	assert.EqualValues(t, 9, p.Session().Cursor)
	assert.Empty(t, p.Session().LastStatus)
}

func TestMalformedEarlierItemIsIgnored(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{
		payload(t, `{"homeworks":[1,{"homework_name":"hw1","status":"approved"}],"current_date":100}`),
	}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	require.True(t, out.OK(), "%v", out.Err)
	assert.EqualValues(t, 100, p.Session().Cursor)
	assert.Equal(t, []string{
		"Status changed for review \"hw1\". Работа проверена: ревьюеру всё понравилось. Ура!",
	}, n.texts())
}

func TestMalformedLastItemStillAdvancesCursor(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{payload(t, `{"homeworks":["x"],"current_date":100}`)}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	assert.Equal(t, review.KindTypeMismatch, out.Kind)
	assert.EqualValues(t, 100, p.Session().Cursor)
	assert.Empty(t, n.sent)
}

func TestExplicitEmptyStatusEqualsLastStatus(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{
		payload(t, `{"homeworks":[{"homework_name":"hw1","status":""}],"current_date":5}`),
	}}
	n := &recordingNotifier{}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	require.True(t, out.OK(), "%v", out.Err)
	assert.Empty(t, n.sent)
	assert.EqualValues(t, 5, p.Session().Cursor)
}

func TestDeliveryFailureKeepsStatusAndRetriesAlerts(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{
		payload(t, `{"homeworks":[{"homework_name":"hw1","status":"approved"}], "current_date": 5}`),
	}}
	n := &recordingNotifier{err: errors.New("network down")}
	p := newTestPoller(f, n)

	out := p.Cycle(context.Background())
	assert.Equal(t, review.KindDeliveryFailed, out.Kind)
	assert.Equal(t, "approved", p.Session().LastStatus)

	// Same status next cycle: no second attempt.
	p.Cycle(context.Background())
	assert.Equal(t, 1, n.failures)

	f2 := &scriptFetcher{results: []fetchResult{payload(t, `{"homeworks":[{"homework_name":"hw1","status":"weird"}]}`)}}
	n2 := &recordingNotifier{err: errors.New("network down")}
	p2 := newTestPoller(f2, n2)
	p2.Cycle(context.Background())
	p2.Cycle(context.Background())
	assert.Equal(t, 2, n2.failures, "undelivered alert should be retried")
	assert.Empty(t, p2.Session().LastErrorText)
}

func TestPanicIsContainedAndLoggedCritical(t *testing.T) {
	var buf bytes.Buffer
	f := &scriptFetcher{panics: true}
	n := &recordingNotifier{}
	p := New(Config{Cursor: 7}, f, n, logx.NewWriter(&buf, "debug"))

	out := p.Cycle(context.Background())
	assert.Equal(t, review.KindUnknown, out.Kind)
	require.Error(t, out.Err)
	assert.Contains(t, buf.String(), `"level":"fatal"`)
	assert.Contains(t, buf.String(), "program failure")
	assert.EqualValues(t, 7, out.Cursor)
}

func TestUnclassifiedErrorDoesNotStopLoop(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{{err: errors.New("something odd")}}}
	n := &recordingNotifier{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &fakeClock{now: time.Unix(0, 0), maxSleeps: 3, cancel: cancel}
	p := New(Config{}, f, n, logx.Nop(), WithClock(clock))

	require.NoError(t, p.Run(ctx))
	assert.Len(t, f.cursors, 3)
}

func TestRunStopsImmediatelyOnCancelledContext(t *testing.T) {
	f := &scriptFetcher{results: []fetchResult{payload(t, `{"current_date": 1}`)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(Config{}, f, &recordingNotifier{}, logx.Nop(), WithClock(&fakeClock{}))
	require.NoError(t, p.Run(ctx))
	assert.Empty(t, f.cursors)
}
