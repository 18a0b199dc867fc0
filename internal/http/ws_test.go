package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/osakwee57-dev/My-attendance/internal/broadcast"
	"github.com/osakwee57-dev/My-attendance/internal/model"
)

func dialWS(t *testing.T, ts *httptest.Server, token, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v (resp %v)", url, err, resp)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) broadcast.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev broadcast.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}

func TestWebsocketStudentReceivesSessionEvents(t *testing.T) {
	ts := newTestServer(t)

	hocToken, _ := register(t, ts, "CSC/2019/001", true)
	studentToken, _ := register(t, ts, "CSC/2021/042", false)

	conn := dialWS(t, ts, studentToken, "")

	resp, body := doJSON(t, ts, http.MethodPost, "/sessions/", hocToken, map[string]string{
		"course_code": "CSC402", "lecturer_name": "Dr. Eze",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open: status %d, body %s", resp.StatusCode, body)
	}
	var sess model.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != broadcast.EventSessionOpened || ev.Session.ID != sess.ID {
		t.Fatalf("event = %+v", ev)
	}

	resp, _ = doJSON(t, ts, http.MethodPost, "/sessions/"+sess.ID.String()+"/close", hocToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close: status %d", resp.StatusCode)
	}

	ev = readEvent(t, conn)
	if ev.Type != broadcast.EventSessionClosed {
		t.Fatalf("event type = %q, want session_closed", ev.Type)
	}
}

func TestWebsocketIssuerSeesAttendance(t *testing.T) {
	ts := newTestServer(t)

	hocToken, _ := register(t, ts, "CSC/2019/001", true)
	studentToken, student := register(t, ts, "CSC/2021/042", false)

	resp, body := doJSON(t, ts, http.MethodPost, "/sessions/", hocToken, map[string]string{
		"course_code": "CSC402", "lecturer_name": "Dr. Eze",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open: status %d, body %s", resp.StatusCode, body)
	}
	var sess model.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	conn := dialWS(t, ts, hocToken, "")

	resp, _ = doJSON(t, ts, http.MethodPost, "/sessions/"+sess.ID.String()+"/sign", studentToken, map[string]string{
		"code": sess.SessionCode,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("sign: status %d", resp.StatusCode)
	}

	ev := readEvent(t, conn)
	if ev.Type != broadcast.EventAttendanceLogged {
		t.Fatalf("event type = %q", ev.Type)
	}
	if ev.Log == nil || ev.Log.StudentID != student.ID {
		t.Fatalf("event log = %+v", ev.Log)
	}
}

func TestWebsocketOtherAudienceSilent(t *testing.T) {
	ts := newTestServer(t)

	hocToken, _ := register(t, ts, "CSC/2019/001", true)

	// Same department, different level: must not hear the open.
	resp, body := doJSON(t, ts, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"name":          "Junior",
		"matric_number": "CSC/2023/001",
		"password":      "pw123456",
		"department":    "Computer Science",
		"level":         "100 Level",
		"signature":     testSignatureDataURL(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d, body %s", resp.StatusCode, body)
	}
	var reg authResponse
	if err := json.Unmarshal(body, &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}

	conn := dialWS(t, ts, reg.AccessToken, "")

	resp, _ = doJSON(t, ts, http.MethodPost, "/sessions/", hocToken, map[string]string{
		"course_code": "CSC402", "lecturer_name": "Dr. Eze",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open: status %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("received an event for another audience")
	}
}
