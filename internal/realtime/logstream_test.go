package realtime_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helpdeskhq/helpdesk-portal/internal/realtime"
)

func TestRealtime(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Realtime Suite")
}

var _ = Describe("LogStream", func() {
	var (
		logs   *realtime.LogStream
		server *httptest.Server
	)

	BeforeEach(func() {
		testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		logs = realtime.NewLogStream(testLogger)

		upgrader := websocket.Upgrader{}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			go logs.Attach(conn)
		}))
	})

	AfterEach(func() {
		logs.Close()
		server.Close()
	})

	dial := func() *websocket.Conn {
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		return conn
	}

	It("sends the greeting as the first frame, before joining the broadcast set", func() {
		conn := dial()
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(msg)).To(ContainSubstring("connected to helpdesk activity stream"))

		Eventually(logs.ConnectedCount).Should(Equal(1))

		logs.SendLog("request 7 updated")
		_, msg, err = conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(msg)).To(Equal("request 7 updated"))
	})

	It("drops a connection once its peer goes away", func() {
		conn := dial()

		_, _, err := conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		Eventually(logs.ConnectedCount).Should(Equal(1))

		conn.Close()
		Eventually(logs.ConnectedCount).Should(Equal(0))
	})
})
