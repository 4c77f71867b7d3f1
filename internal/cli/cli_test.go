package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/littlelemon/internal/notify"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

const (
	futureDate = "2099-01-01"
	slotTime   = "19:00"
)

type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	base := t.TempDir()
	return cliEnv{
		configDir: filepath.Join(base, "config"),
		dataDir:   filepath.Join(base, "data"),
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

func (e cliEnv) run(t *testing.T, args ...string) result {
	t.Helper()
	return e.runWith(t, append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)...)
}

func (e cliEnv) runWith(t *testing.T, args ...string) result {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func bookArgs(name string, guests string) []string {
	return []string{
		"book",
		"--name", name,
		"--email", "guest@example.com",
		"--phone", "+15551234567",
		"--guests", guests,
		"--date", futureDate,
		"--time", slotTime,
	}
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	r := env.run(t, "version")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "lemon v")
	_, err := os.Stat(env.configDir)
	assert.True(t, os.IsNotExist(err), "version must not touch the config dir")
}

func TestInit(t *testing.T) {
	env := newCLIEnv(t)

	r := env.run(t, "init")

	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Little Lemon reservations initialized")
	assert.Contains(t, r.stdout, env.dataDir)

	data, err := os.ReadFile(filepath.Join(env.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: file")
	assert.Contains(t, string(data), "read_timeout: 10s")

	_, err = os.Stat(filepath.Join(env.dataDir, types.DefaultTablesKey+".json"))
	assert.NoError(t, err, "tables seeded on init")
}

func TestBookListCancel(t *testing.T) {
	env := newCLIEnv(t)

	r := env.run(t, bookArgs("Ann", "2")...)
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Booking confirmed! Table T1 reserved for 2 on 2099-01-01 at 19:00.")

	r = env.run(t, append([]string{"--json"}, bookArgs("Bob", "5")...)...)
	require.NoError(t, r.err, r.stderr)
	var b types.Booking
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &b))
	assert.Equal(t, "T5", b.TableID)

	r = env.run(t, "--json", "list")
	require.NoError(t, r.err)
	var bookings []types.Booking
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &bookings))
	require.Len(t, bookings, 2)

	r = env.run(t, "cancel", b.ID)
	require.NoError(t, r.err)
	r = env.run(t, "cancel", "no-such-id")
	require.NoError(t, r.err, "unknown ids cancel cleanly")

	r = env.run(t, "list", "--date", futureDate, "--time", slotTime)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Ann")
	assert.NotContains(t, r.stdout, "Bob")
}

func TestBookRejectsInvalidInput(t *testing.T) {
	env := newCLIEnv(t)
	args := bookArgs("A", "2")
	args[4] = "not-an-email"

	r := env.run(t, args...)

	require.Error(t, r.err)
	assert.Equal(t, exitUserError, ExitCode(r.err))
	assert.Contains(t, r.stderr, "name: Please provide a valid name.")
	assert.Contains(t, r.stderr, "email: Please provide a valid email.")
}

func TestBookNoAvailability(t *testing.T) {
	env := newCLIEnv(t)
	for i := 0; i < 5; i++ {
		r := env.run(t, bookArgs("Guest", "1")...)
		require.NoError(t, r.err, r.stderr)
	}

	r := env.run(t, bookArgs("Late", "1")...)

	require.Error(t, r.err)
	assert.Equal(t, exitUserError, ExitCode(r.err))
	assert.Equal(t, "No tables available for selected time", r.err.Error())
}

func TestTablesAndAvailability(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, env.run(t, bookArgs("Ann", "2")...).err)

	r := env.run(t, "--json", "tables", "--date", futureDate, "--time", slotTime)
	require.NoError(t, r.err)
	var rows []tableRow
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &rows))
	require.Len(t, rows, 5)
	assert.Equal(t, statusReserved, rows[0].Status)
	assert.Equal(t, statusAvailable, rows[1].Status)

	r = env.run(t, "--json", "availability", "--date", futureDate, "--time", slotTime, "--guests", "5")
	require.NoError(t, r.err)
	var tables []types.Table
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &tables))
	assert.Equal(t, []types.Table{{ID: "T5", Seats: 6}}, tables)

	r = env.run(t, "availability", "--date", futureDate)
	assert.Equal(t, exitUserError, ExitCode(r.err))
}

func TestClear(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, env.run(t, bookArgs("Ann", "2")...).err)

	r := env.run(t, "clear")
	assert.Equal(t, exitUserError, ExitCode(r.err))

	r = env.run(t, "clear", "--yes")
	require.NoError(t, r.err)

	r = env.run(t, "list")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "No bookings.")
}

func TestExport(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, env.run(t, bookArgs("Ann", "2")...).err)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	r := env.run(t, "export", "--out", path)

	require.NoError(t, r.err)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestBackendFromConfigFile(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"),
		[]byte("backend: sqlite\nseed_tables:\n  - {id: Bar, seats: 1}\n  - {id: Booth, seats: 8}\n"), 0o644))

	r := env.run(t, "--json", "tables")
	require.NoError(t, r.err, r.stderr)

	var rows []tableRow
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &rows))
	assert.Equal(t, []tableRow{{ID: "Bar", Seats: 1}, {ID: "Booth", Seats: 8}}, rows)
	_, err := os.Stat(filepath.Join(env.dataDir, "littlelemon.db"))
	assert.NoError(t, err)
}

func TestBackendFromEnv(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("LEMON_BACKEND", "sqlite")

	require.NoError(t, env.run(t, "init").err)

	_, err := os.Stat(filepath.Join(env.dataDir, "littlelemon.db"))
	assert.NoError(t, err)
}

func TestInvalidBackendIsUserError(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("LEMON_BACKEND", "paper")

	r := env.run(t, "list")

	require.Error(t, r.err)
	assert.Equal(t, exitUserError, ExitCode(r.err))
	assert.ErrorIs(t, r.err, types.ErrBackendUnknown)
}

func TestDataDirPrecedence(t *testing.T) {
	env := newCLIEnv(t)
	fromConfig := filepath.Join(t.TempDir(), "from-config")
	fromEnv := filepath.Join(t.TempDir(), "from-env")
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"),
		[]byte("backend: file\ndata_dir: "+fromConfig+"\n"), 0o644))
	t.Setenv("LEMON_DATA_DIR", fromEnv)

	r := env.runWith(t, "--config-dir", env.configDir, "--json", "init")
	require.NoError(t, r.err, r.stderr)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
	assert.Equal(t, fromConfig, got["data_dir"], "config.yaml wins over LEMON_DATA_DIR")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, ExitCode(nil))
	assert.Equal(t, exitSysError, ExitCode(sysError("boom")))
	assert.Equal(t, exitUserError, ExitCode(userError("bad")))

	env := newCLIEnv(t)
	r := env.run(t, "cancel")
	assert.Equal(t, exitUserError, ExitCode(r.err), "argument errors are user errors")
}

func TestSlotFlagsAreTrimmed(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, env.run(t, bookArgs("Ann", "2")...).err)

	r := env.run(t, "--json", "list", "--date", " "+futureDate+" ", "--time", slotTime+" ")
	require.NoError(t, r.err, r.stderr)
	var bookings []types.Booking
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &bookings))
	assert.Len(t, bookings, 1)

	r = env.run(t, "--json", "tables", "--date", " "+futureDate, "--time", slotTime)
	require.NoError(t, r.err, r.stderr)
	var rows []tableRow
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &rows))
	assert.Equal(t, statusReserved, rows[0].Status)
}

// listen subscribes to the change channel on addr and returns the received
// events.
func listen(t *testing.T, addr string) <-chan notify.Event {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	events := make(chan notify.Event, 8)
	listener := notify.NewRedisNotifier(rdb, types.DefaultRedisChannel, zerolog.Nop())
	sub, err := listener.Subscribe(context.Background(), func(_ context.Context, e notify.Event) error {
		events <- e
		return nil
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return events
}

func nextEvent(t *testing.T, events <-chan notify.Event) notify.Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no change event received")
		return notify.Event{}
	}
}

func TestMutationsPublishChanges(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("LEMON_REDIS_ADDR", mr.Addr())
	env := newCLIEnv(t)
	events := listen(t, mr.Addr())

	r := env.run(t, append([]string{"--json"}, bookArgs("Ann", "2")...)...)
	require.NoError(t, r.err, r.stderr)
	var b types.Booking
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &b))

	e := nextEvent(t, events)
	assert.Equal(t, notify.EventBookingCreated, e.Type)
	assert.Equal(t, b.ID, e.BookingID)

	require.NoError(t, env.run(t, "cancel", b.ID).err)
	e = nextEvent(t, events)
	assert.Equal(t, notify.EventBookingCancelled, e.Type)
	assert.Equal(t, b.ID, e.BookingID)

	require.NoError(t, env.run(t, "clear", "--yes").err)
	assert.Equal(t, notify.EventBookingsCleared, nextEvent(t, events).Type)
}

func TestMutationsWithoutRedisPublishNothing(t *testing.T) {
	env := newCLIEnv(t)
	root, a := newRoot()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config-dir", env.configDir, "--data-dir", env.dataDir}, bookArgs("Ann", "2")...))
	require.NoError(t, root.Execute())

	n, release := a.changeNotifier(nil)
	defer release()
	assert.Nil(t, n)
}

func TestLogFileClosedAfterRun(t *testing.T) {
	env := newCLIEnv(t)
	logPath := filepath.Join(t.TempDir(), "lemon.log")
	t.Setenv("LEMON_LOG_FILE", logPath)
	t.Setenv("LEMON_LOG_FORMAT", "json")

	root, a := newRoot()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config-dir", env.configDir, "--data-dir", env.dataDir, "--verbose", "init"})
	require.NoError(t, root.Execute())
	require.NotNil(t, a.logCloser)

	require.NoError(t, a.close())
	assert.Nil(t, a.logCloser)
	assert.NoError(t, a.close(), "closing twice is harmless")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "seeded default tables")
}
