package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/facematch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLoc = time.FixedZone("CST", -6*60*60)
	testDay = calendar.Date(2024, time.March, 5) // Tuesday
	photo   = []byte("jpeg")
)

type attendanceFixture struct {
	store   *memory.Store
	events  attendance.EventRepository
	emp     employee.Employee
	now     time.Time
	matcher facematch.Static
	photos  storage.FileStorage
	hub     *sse.Hub
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	store := memory.NewStore()

	var details []schedule.Detail
	for dow := 1; dow <= 5; dow++ {
		details = append(details, schedule.Detail{
			DayOfWeek:   dow,
			Start:       calendar.MustClock("09:00"),
			End:         calendar.MustClock("18:00"),
			MealMinutes: 60,
		})
	}
	ws := store.SeedSchedule(schedule.WorkSchedule{Name: "Oficina", Week: schedule.NewWeek(details)})

	faceID := "face-ana"
	emp := store.SeedEmployee(employee.Employee{
		EmployeeCode: "E001",
		FullName:     "Ana Torres",
		FaceID:       &faceID,
		HireDate:     calendar.Date(2022, time.January, 10),
	})
	store.SeedAssignment(emp.ID, ws.ID, emp.HireDate, nil)

	return &attendanceFixture{
		store:   store,
		events:  memory.NewEventRepository(store),
		emp:     emp,
		matcher: facematch.Static{FaceID: faceID},
		hub:     sse.NewHub(),
	}
}

func (f *attendanceFixture) service() attendance.AttendanceService {
	return NewAttendanceService(
		memory.NewTransactor(f.store),
		f.events,
		memory.NewEmployeeRepository(f.store),
		memory.NewWorkScheduleRepository(f.store),
		f.matcher,
		f.photos,
		f.hub,
		testLoc,
		func() time.Time { return f.now },
	)
}

func (f *attendanceFixture) clockAt(t *testing.T, clock string, mode attendance.Mode) (attendance.ClockResponse, error) {
	t.Helper()
	f.now = calendar.MustClock(clock).On(testDay, testLoc)
	return f.service().RecordFromImage(context.Background(), attendance.ClockRequest{Image: photo, Mode: mode})
}

func (f *attendanceFixture) seed(t *testing.T, typ attendance.EventType, clock string) attendance.Event {
	t.Helper()
	ev, err := f.events.Create(context.Background(), attendance.Event{
		EmployeeID: f.emp.ID,
		Type:       typ,
		OccurredAt: calendar.MustClock(clock).On(testDay, testLoc),
	})
	require.NoError(t, err)
	return ev
}

func (f *attendanceFixture) dayEvents(t *testing.T) []attendance.Event {
	t.Helper()
	events, err := f.events.ListByEmployee(context.Background(), f.emp.ID,
		calendar.StartOfDayIn(testDay, testLoc), calendar.StartOfDayIn(calendar.AddDays(testDay, 1), testLoc))
	require.NoError(t, err)
	return events
}

// ========== Clocking ==========

func TestAttendanceService_RecordFromImage_FullDay(t *testing.T) {
	f := newAttendanceFixture(t)

	// Act
	entry, err := f.clockAt(t, "09:12", attendance.ModeWork)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, attendance.EventEntry, entry.Type)
	assert.Equal(t, f.emp.ID, entry.EmployeeID)
	require.NotNil(t, entry.LateMinutes)
	assert.Equal(t, 12, *entry.LateMinutes)
	assert.Contains(t, entry.Message, "Ana Torres")

	start, err := f.clockAt(t, "13:00", attendance.ModeBreak)
	require.NoError(t, err)
	assert.Equal(t, attendance.EventBreakStart, start.Type)

	_, err = f.clockAt(t, "13:10", attendance.ModeWork)
	assert.ErrorIs(t, err, attendance.ErrBreakOpen)

	end, err := f.clockAt(t, "13:45", attendance.ModeBreak)
	require.NoError(t, err)
	assert.Equal(t, attendance.EventBreakEnd, end.Type)

	exit, err := f.clockAt(t, "18:05", attendance.ModeWork)
	require.NoError(t, err)
	assert.Equal(t, attendance.EventExit, exit.Type)
	assert.Nil(t, exit.LateMinutes)

	_, err = f.clockAt(t, "18:30", attendance.ModeWork)
	assert.ErrorIs(t, err, attendance.ErrShiftAlreadyFinished)

	_, err = f.clockAt(t, "18:31", attendance.ModeBreak)
	assert.ErrorIs(t, err, attendance.ErrEntryRequired)

	assert.Len(t, f.dayEvents(t), 4)
}

func TestAttendanceService_RecordFromImage_ArchivesPhoto(t *testing.T) {
	f := newAttendanceFixture(t)
	photos, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f.photos = photos

	// Act
	resp, err := f.clockAt(t, "08:55", attendance.ModeWork)

	// Assert
	require.NoError(t, err)
	key := PhotoKey(attendance.Event{ID: resp.EventID, EmployeeID: f.emp.ID}, testDay)
	assert.Equal(t, "clockings/2024-03-05/"+f.emp.ID+"/"+resp.EventID+".jpg", key)
	ok, err := photos.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAttendanceService_Subscribe_StreamsClockings(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	feed, cleanup := f.service().Subscribe(ctx)

	// Act
	resp, err := f.clockAt(t, "09:00", attendance.ModeWork)
	require.NoError(t, err)

	// Assert
	select {
	case ev := <-feed:
		assert.Equal(t, FeedEventClocking, ev.Event)
		assert.Equal(t, resp.EventID, ev.Data.EventID)
		assert.Equal(t, attendance.EventEntry, ev.Data.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a feed event")
	}

	cancel()
	cleanup()
	for range feed {
	}
	assert.Equal(t, 0, f.hub.SubscriberCount(FeedTopic))
}

func TestAttendanceService_RecordFromImage_OnTimeEntryHasNoLateness(t *testing.T) {
	f := newAttendanceFixture(t)

	resp, err := f.clockAt(t, "08:55", attendance.ModeWork)

	require.NoError(t, err)
	assert.Nil(t, resp.LateMinutes)
}

func TestAttendanceService_RecordFromImage_BreakRequiresEntry(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.clockAt(t, "10:00", attendance.ModeBreak)

	assert.ErrorIs(t, err, attendance.ErrEntryRequired)
	assert.Empty(t, f.dayEvents(t))
}

func TestAttendanceService_RecordFromImage_RestDayEntry(t *testing.T) {
	f := newAttendanceFixture(t)
	saturday := calendar.Date(2024, time.March, 9)
	f.now = calendar.MustClock("11:00").On(saturday, testLoc)

	resp, err := f.service().RecordFromImage(context.Background(), attendance.ClockRequest{Image: photo})

	require.NoError(t, err)
	assert.Equal(t, attendance.EventEntry, resp.Type)
	assert.Nil(t, resp.LateMinutes)
}

func TestAttendanceService_RecordFromImage_FaceErrors(t *testing.T) {
	cases := []struct {
		name    string
		matcher facematch.Static
		wantErr error
	}{
		{"no match", facematch.Static{}, attendance.ErrFaceNotRecognized},
		{"face not enrolled", facematch.Static{FaceID: "stranger"}, attendance.ErrFaceNotRecognized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newAttendanceFixture(t)
			f.matcher = c.matcher

			_, err := f.clockAt(t, "09:00", attendance.ModeWork)

			assert.ErrorIs(t, err, c.wantErr)
		})
	}
}

func TestAttendanceService_RecordFromImage_AuthenticatedMismatch(t *testing.T) {
	f := newAttendanceFixture(t)
	other := "someone-else"
	f.now = calendar.MustClock("09:00").On(testDay, testLoc)

	_, err := f.service().RecordFromImage(context.Background(), attendance.ClockRequest{
		Image:          photo,
		Mode:           attendance.ModeWork,
		AuthEmployeeID: &other,
	})

	assert.ErrorIs(t, err, attendance.ErrFaceMismatch)
	assert.Empty(t, f.dayEvents(t))
}

func TestAttendanceService_RecordFromImage_Validation(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.service().RecordFromImage(context.Background(), attendance.ClockRequest{Mode: "lunch"})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "photo")
	assert.Contains(t, fields, "mode")
}

func TestNextEventType(t *testing.T) {
	ev := func(typ attendance.EventType) *attendance.Event { return &attendance.Event{Type: typ} }
	cases := []struct {
		name    string
		mode    attendance.Mode
		last    *attendance.Event
		want    attendance.EventType
		wantErr error
	}{
		{"first work clocking", attendance.ModeWork, nil, attendance.EventEntry, nil},
		{"work after entry", attendance.ModeWork, ev(attendance.EventEntry), attendance.EventExit, nil},
		{"work after break end", attendance.ModeWork, ev(attendance.EventBreakEnd), attendance.EventExit, nil},
		{"work during break", attendance.ModeWork, ev(attendance.EventBreakStart), "", attendance.ErrBreakOpen},
		{"work after exit", attendance.ModeWork, ev(attendance.EventExit), "", attendance.ErrShiftAlreadyFinished},
		{"break with nothing", attendance.ModeBreak, nil, "", attendance.ErrEntryRequired},
		{"break after exit", attendance.ModeBreak, ev(attendance.EventExit), "", attendance.ErrEntryRequired},
		{"break after entry", attendance.ModeBreak, ev(attendance.EventEntry), attendance.EventBreakStart, nil},
		{"break after break start", attendance.ModeBreak, ev(attendance.EventBreakStart), attendance.EventBreakEnd, nil},
		{"second break", attendance.ModeBreak, ev(attendance.EventBreakEnd), attendance.EventBreakStart, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := nextEventType(c.mode, c.last)
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

// ========== Ledger maintenance ==========

func TestAttendanceService_ToggleLateIgnored(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	entry := f.seed(t, attendance.EventEntry, "09:20")
	exit := f.seed(t, attendance.EventExit, "18:00")
	svc := f.service()

	toggled, err := svc.ToggleLateIgnored(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, toggled.LateIgnored)

	toggled, err = svc.ToggleLateIgnored(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, toggled.LateIgnored)

	_, err = svc.ToggleLateIgnored(ctx, exit.ID)
	assert.ErrorIs(t, err, attendance.ErrNotEntryEvent)

	_, err = svc.ToggleLateIgnored(ctx, "missing")
	assert.ErrorIs(t, err, attendance.ErrEventNotFound)
}

func TestAttendanceService_UpdateBreak(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	f.seed(t, attendance.EventEntry, "09:00")
	start := f.seed(t, attendance.EventBreakStart, "13:00")
	end := f.seed(t, attendance.EventBreakEnd, "13:30")
	svc := f.service()

	req := attendance.UpdateBreakRequest{
		StartEventID: start.ID,
		EndEventID:   end.ID,
		Date:         "2024-03-05",
		StartTime:    "14:00",
		EndTime:      "14:45",
	}

	// Act
	err := svc.UpdateBreak(ctx, req)

	// Assert
	require.NoError(t, err)
	stored, err := f.events.GetByID(ctx, start.ID)
	require.NoError(t, err)
	assert.True(t, calendar.MustClock("14:00").On(testDay, testLoc).Equal(stored.OccurredAt))
	stored, err = f.events.GetByID(ctx, end.ID)
	require.NoError(t, err)
	assert.True(t, calendar.MustClock("14:45").On(testDay, testLoc).Equal(stored.OccurredAt))
}

func TestAttendanceService_UpdateBreak_Errors(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	entry := f.seed(t, attendance.EventEntry, "09:00")
	start := f.seed(t, attendance.EventBreakStart, "13:00")
	end := f.seed(t, attendance.EventBreakEnd, "13:30")
	svc := f.service()

	base := attendance.UpdateBreakRequest{
		StartEventID: start.ID, EndEventID: end.ID, Date: "2024-03-05", StartTime: "14:00", EndTime: "14:30",
	}

	inverted := base
	inverted.StartTime, inverted.EndTime = "15:00", "14:00"
	assert.ErrorIs(t, svc.UpdateBreak(ctx, inverted), attendance.ErrInvalidBreak)

	wrongPair := base
	wrongPair.StartEventID = entry.ID
	assert.ErrorIs(t, svc.UpdateBreak(ctx, wrongPair), attendance.ErrBreakMismatch)

	wrongDate := base
	wrongDate.Date = "2024-03-06"
	assert.ErrorIs(t, svc.UpdateBreak(ctx, wrongDate), attendance.ErrEventWrongDate)

	malformed := base
	malformed.EndTime = "25:00"
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, svc.UpdateBreak(ctx, malformed), &verrs)
}

func TestAttendanceService_DeleteBreak(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	entry := f.seed(t, attendance.EventEntry, "09:00")
	start := f.seed(t, attendance.EventBreakStart, "13:00")
	end := f.seed(t, attendance.EventBreakEnd, "13:30")
	svc := f.service()

	assert.ErrorIs(t, svc.DeleteBreak(ctx, end.ID, start.ID), attendance.ErrBreakMismatch)

	require.NoError(t, svc.DeleteBreak(ctx, start.ID, end.ID))

	events := f.dayEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, entry.ID, events[0].ID)
}

// ========== Repair ==========

func TestAttendanceService_RepairRange(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	keepEntry := f.seed(t, attendance.EventEntry, "09:00")
	dupEntry := f.seed(t, attendance.EventEntry, "09:05")
	f.seed(t, attendance.EventBreakStart, "13:00")
	earlyExit := f.seed(t, attendance.EventExit, "17:00")
	keepExit := f.seed(t, attendance.EventExit, "18:00")

	// Act
	report, err := f.service().RepairRange(ctx, f.emp.ID, testDay, testDay)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, f.emp.ID, report.EmployeeID)
	assert.ElementsMatch(t, []string{dupEntry.ID, earlyExit.ID}, report.RemovedEventIDs)
	require.Len(t, report.SynthesizedEvents, 1)
	assert.Equal(t, attendance.EventBreakEnd, report.SynthesizedEvents[0].Type)
	assert.True(t, keepExit.OccurredAt.Equal(report.SynthesizedEvents[0].OccurredAt))

	var types []attendance.EventType
	var ids []string
	for _, ev := range f.dayEvents(t) {
		types = append(types, ev.Type)
		ids = append(ids, ev.ID)
	}
	assert.Contains(t, ids, keepEntry.ID)
	assert.Contains(t, ids, keepExit.ID)
	assert.ElementsMatch(t, []attendance.EventType{
		attendance.EventEntry, attendance.EventBreakStart, attendance.EventBreakEnd, attendance.EventExit,
	}, types)

	// A second pass finds nothing to do.
	again, err := f.service().RepairRange(ctx, f.emp.ID, testDay, testDay)
	require.NoError(t, err)
	assert.Empty(t, again.RemovedEventIDs)
	assert.Empty(t, again.SynthesizedEvents)
}

func TestAttendanceService_RepairRange_Errors(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)

	_, err := f.service().RepairRange(ctx, f.emp.ID, testDay, calendar.AddDays(testDay, -1))
	assert.ErrorIs(t, err, attendance.ErrInvalidRange)

	_, err = f.service().RepairRange(ctx, "missing", testDay, testDay)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestCloseOrphanBreaks(t *testing.T) {
	at := func(clock string) time.Time { return calendar.MustClock(clock).On(testDay, testLoc) }
	events := []attendance.Event{
		{ID: "1", EmployeeID: "e", Type: attendance.EventEntry, OccurredAt: at("09:00")},
		{ID: "2", EmployeeID: "e", Type: attendance.EventBreakStart, OccurredAt: at("11:00")},
		{ID: "3", EmployeeID: "e", Type: attendance.EventBreakStart, OccurredAt: at("13:00")},
		{ID: "4", EmployeeID: "e", Type: attendance.EventBreakEnd, OccurredAt: at("13:30")},
		{ID: "5", EmployeeID: "e", Type: attendance.EventBreakStart, OccurredAt: at("17:00")},
	}

	got := closeOrphanBreaks(events)

	require.Len(t, got, 1)
	assert.True(t, at("13:00").Equal(got[0].OccurredAt))
	assert.Equal(t, "e", got[0].EmployeeID)
}
