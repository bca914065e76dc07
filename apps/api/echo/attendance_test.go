package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/absences/apps/api/echo"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/tests"
)

func Test_attendanceApi_edit(t *testing.T) {
	srv, trk, _ := setup(t)
	emma := testutil.CreateStudent(t, trk, "Emma", "Martin", "parent.martin@email.com", "CP-A")

	edit := func(body string) echoapi.EditResponse {
		t.Helper()
		req, rec := newRequest(http.MethodPut, "/v1/attendance", []byte(body))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res echoapi.EditResponse
		unmarshal(t, rec, &res)
		return res
	}

	res := edit(`{"student_id": "` + emma.ID + `", "date": "2024-01-15", "period": "morning", "status": "unjustified"}`)
	assert.Equal(t, attendance.Created, res.Outcome)
	require.NotNil(t, res.Record)
	assert.Equal(t, attendance.Unjustified, res.Record.Morning)
	assert.Equal(t, attendance.Unset, res.Record.Afternoon)

	res = edit(`{"student_id": "` + emma.ID + `", "date": "2024-01-15", "period": "matin", "status": "O"}`)
	assert.Equal(t, attendance.Unchanged, res.Outcome)

	res = edit(`{"student_id": "` + emma.ID + `", "date": "2024-01-15", "period": "afternoon", "status": "excused", "notes": " mot des parents "}`)
	assert.Equal(t, attendance.Updated, res.Outcome)
	assert.Equal(t, attendance.Excused, res.Record.Afternoon)
	assert.Equal(t, "mot des parents", res.Record.Notes)

	res = edit(`{"student_id": "` + emma.ID + `", "date": "2024-01-15", "period": "morning", "status": ""}`)
	assert.Equal(t, attendance.Updated, res.Outcome)
	res = edit(`{"student_id": "` + emma.ID + `", "date": "2024-01-15", "period": "afternoon", "status": ""}`)
	assert.Equal(t, attendance.Deleted, res.Outcome)
	assert.Nil(t, res.Record)
	_, ok := trk.Record(emma.ID, "2024-01-15")
	assert.False(t, ok)

	tests := []httpTest{
		{
			name:     "unknown student",
			method:   http.MethodPut,
			path:     "/v1/attendance",
			body:     []byte(`{"student_id": "unknown", "date": "2024-01-15", "period": "morning", "status": "present"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name:     "invalid status",
			method:   http.MethodPut,
			path:     "/v1/attendance",
			body:     []byte(`{"student_id": "` + emma.ID + `", "date": "2024-01-15", "period": "morning", "status": "maybe"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid date",
			method:   http.MethodPut,
			path:     "/v1/attendance",
			body:     []byte(`{"student_id": "` + emma.ID + `", "date": "15/01/2024", "period": "morning", "status": "present"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "period required",
			method:   http.MethodPut,
			path:     "/v1/attendance",
			body:     []byte(`{"student_id": "` + emma.ID + `", "date": "2024-01-15", "status": "present"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"period": "this field is required"}),
		},
		{
			name:     "nothing to do",
			method:   http.MethodPut,
			path:     "/v1/attendance",
			body:     []byte(`{"student_id": "` + emma.ID + `", "date": "2024-01-15"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "a status or notes are required"}),
		},
		{
			name:     "notes without a record",
			method:   http.MethodPut,
			path:     "/v1/attendance",
			body:     []byte(`{"student_id": "` + emma.ID + `", "date": "2024-01-16", "notes": "malade"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: attendance.ErrRecordNotFound.Error()}),
		},
	}
	runHTTPTests(t, srv, tests)
}

func Test_attendanceApi_queryDate(t *testing.T) {
	srv, trk, _ := setup(t)
	emma := testutil.CreateStudent(t, trk, "Emma", "Martin", "parent.martin@email.com", "CP-A")
	louis := testutil.CreateStudent(t, trk, "Louis", "Dubois", "parent.dubois@email.com", "CP-A")
	dates := testutil.Dates(2)
	testutil.SetStatuses(t, trk, emma.ID, attendance.Present, attendance.Unjustified, dates...)
	testutil.SetStatuses(t, trk, louis.ID, attendance.MedicalCertificate, attendance.MedicalCertificate, dates[1])

	req, rec := newRequest(http.MethodGet, "/v1/attendance?date="+string(dates[1]))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var day echoapi.DayAttendance
	unmarshal(t, rec, &day)
	assert.Equal(t, dates[1], day.Date)
	require.Len(t, day.Records, 2)
	assert.Equal(t, attendance.Unjustified, day.Records[emma.ID].Afternoon)
	assert.Equal(t, attendance.MedicalCertificate, day.Records[louis.ID].Morning)

	req, rec = newRequest(http.MethodGet, "/v1/attendance?date=2023-12-31")
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshal(t, rec, &day)
	assert.Empty(t, day.Records)

	req, rec = newRequest(http.MethodGet, "/v1/attendance?date=yesterday")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
