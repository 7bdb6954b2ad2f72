package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/property-pal/app/api"
	"github.com/lysyi3m/property-pal/app/database"
	"github.com/lysyi3m/property-pal/app/importer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const testAPIKey = "secret"

const agentProfile = `columns:
  property_url: [Link, URL]
  price: [Asking Price]
`

func decode(resp *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	Expect(json.Unmarshal(resp.Body.Bytes(), &body)).To(Succeed())
	return body
}

var _ = Describe("Handler", func() {
	var (
		repo   *database.SQLiteListingRepository
		router *gin.Engine
	)

	do := func(method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("X-API-Key", testAPIKey)
		req.Header.Set("X-Reviewer", "dana")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	importCSV := func(csv string) *httptest.ResponseRecorder {
		return do(http.MethodPost, "/api/listings/import", []byte(csv), "text/csv")
	}

	firstID := func() string {
		summaries, err := repo.ListListings(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).NotTo(BeEmpty())
		return summaries[0].ID
	}

	BeforeEach(func() {
		dir := GinkgoT().TempDir()

		db, err := database.NewConnection(filepath.Join(dir, "listings.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		_, _, err = database.RunMigrations(db)
		Expect(err).NotTo(HaveOccurred())

		profilesDir := filepath.Join(dir, "profiles")
		Expect(os.MkdirAll(profilesDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(profilesDir, "agent.yml"), []byte(agentProfile), 0o644)).To(Succeed())

		profileCache := importer.NewProfileCache(profilesDir)
		Expect(profileCache.Run()).To(Succeed())

		repo = database.NewListingRepository(db)
		handler := api.NewHandler(repo, profileCache, importer.NewParser(), 1024)
		router = api.NewServer(handler, testAPIKey)
	})

	Describe("authentication", func() {
		It("rejects requests without a key", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			Expect(resp.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts a bearer token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
			req.Header.Set("Authorization", "Bearer "+testAPIKey)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			Expect(resp.Code).To(Equal(http.StatusOK))
		})

		It("leaves health public", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(decode(resp)["import_profiles"]).To(ConsistOf("agent"))
		})
	})

	Describe("POST /api/listings/import", func() {
		It("imports rows with a property URL and skips the rest", func() {
			resp := importCSV("property_url,price,photo_1,photo_2\n" +
				"https://example.com/a,\"$1,200\",a.jpg,\n" +
				",500,,\n" +
				"https://example.com/b,,,b.jpg\n")

			Expect(resp.Code).To(Equal(http.StatusOK))
			body := decode(resp)
			Expect(body["imported"]).To(BeEquivalentTo(2))
			Expect(body["skipped"]).To(BeEquivalentTo(1))

			count, err := repo.GetListingCount(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})

		It("accepts a multipart file upload", func() {
			var buf bytes.Buffer
			w := multipart.NewWriter(&buf)
			part, err := w.CreateFormFile("file", "listings.csv")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte("property_url\nhttps://example.com/a\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Close()).To(Succeed())

			resp := do(http.MethodPost, "/api/listings/import", buf.Bytes(), w.FormDataContentType())

			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(decode(resp)["imported"]).To(BeEquivalentTo(1))
		})

		It("rejects a file without the csv extension", func() {
			var buf bytes.Buffer
			w := multipart.NewWriter(&buf)
			part, err := w.CreateFormFile("file", "listings.txt")
			Expect(err).NotTo(HaveOccurred())
			_, _ = part.Write([]byte("property_url\nhttps://example.com/a\n"))
			Expect(w.Close()).To(Succeed())

			resp := do(http.MethodPost, "/api/listings/import", buf.Bytes(), w.FormDataContentType())

			Expect(resp.Code).To(Equal(http.StatusBadRequest))
		})

		It("applies a named import profile", func() {
			resp := do(http.MethodPost, "/api/listings/import?profile=agent",
				[]byte("Link,Asking Price\nhttps://example.com/a,250000\n"), "text/csv")

			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(decode(resp)["imported"]).To(BeEquivalentTo(1))

			l, err := repo.GetListing(context.Background(), firstID())
			Expect(err).NotTo(HaveOccurred())
			Expect(l.PropertyURL).To(Equal("https://example.com/a"))
			Expect(l.Price).To(HaveValue(Equal(250000.0)))
		})

		It("rejects an unknown profile", func() {
			resp := do(http.MethodPost, "/api/listings/import?profile=nope",
				[]byte("property_url\nhttps://example.com/a\n"), "text/csv")

			Expect(resp.Code).To(Equal(http.StatusBadRequest))
		})

		It("reports malformed CSV without inserting anything", func() {
			resp := importCSV("property_url,price\n\"https://example.com/a,1\n")

			Expect(resp.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(resp)["error"]).To(Equal("CSV parse error"))

			count, err := repo.GetListingCount(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("rejects uploads over the size limit", func() {
			resp := importCSV("property_url\n" + strings.Repeat("https://example.com/x\n", 100))

			Expect(resp.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})

		It("treats an empty upload as zero rows", func() {
			resp := importCSV("")

			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(decode(resp)["imported"]).To(BeEquivalentTo(0))
		})
	})

	Describe("GET /api/listings", func() {
		It("returns an empty list", func() {
			resp := do(http.MethodGet, "/api/listings", nil, "")

			Expect(resp.Code).To(Equal(http.StatusOK))
			body := decode(resp)
			Expect(body["listings"]).To(BeEmpty())
			Expect(body["total"]).To(BeEquivalentTo(0))
		})

		It("counts pending and reviewed listings", func() {
			Expect(importCSV("property_url\nhttps://example.com/a\nhttps://example.com/b\n").Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodPost, "/api/listings/"+firstID()+"/review", nil, "").Code).To(Equal(http.StatusOK))

			resp := do(http.MethodGet, "/api/listings", nil, "")

			Expect(resp.Code).To(Equal(http.StatusOK))
			body := decode(resp)
			Expect(body["total"]).To(BeEquivalentTo(2))
			Expect(body["counts"]).To(Equal(map[string]any{"ok": 1.0, "pending": 1.0, "review": 0.0}))

			statuses := []any{}
			for _, row := range body["listings"].([]any) {
				statuses = append(statuses, row.(map[string]any)["status"])
			}
			Expect(statuses).To(ConsistOf("ok", "pending"))
		})
	})

	Describe("GET /api/listings/:id", func() {
		It("returns 404 for an unknown listing", func() {
			resp := do(http.MethodGet, "/api/listings/missing", nil, "")

			Expect(resp.Code).To(Equal(http.StatusNotFound))
		})

		It("fails every check before the listing is scored", func() {
			Expect(importCSV("property_url,description\nhttps://example.com/a,\"{\"\"text\"\": \"\"Bright flat\"\"}\"\n").Code).To(Equal(http.StatusOK))

			resp := do(http.MethodGet, "/api/listings/"+firstID(), nil, "")

			Expect(resp.Code).To(Equal(http.StatusOK))
			body := decode(resp)
			Expect(body["description_text"]).To(Equal("Bright flat"))
			Expect(body["status_variant"]).To(Equal("pending"))
			checklist := body["checklist"].(map[string]any)
			Expect(checklist["passed"]).To(BeEquivalentTo(0))
			Expect(checklist["total"]).To(BeEquivalentTo(6))
			Expect(checklist["has_data"]).To(BeFalse())
		})

		It("reconciles a stored score", func() {
			Expect(importCSV("property_url\nhttps://example.com/a\n").Code).To(Equal(http.StatusOK))
			id := firstID()

			score := `{"photos_divisions": false, "duplicates": true, "photo_quality": true, "location_ok": "true"}`
			Expect(do(http.MethodPut, "/api/listings/"+id+"/score", []byte(score), "application/json").Code).To(Equal(http.StatusOK))

			resp := do(http.MethodGet, "/api/listings/"+id, nil, "")

			Expect(resp.Code).To(Equal(http.StatusOK))
			checklist := decode(resp)["checklist"].(map[string]any)
			Expect(checklist["passed"]).To(BeEquivalentTo(2))
			Expect(checklist["has_data"]).To(BeTrue())
		})
	})

	Describe("review actions", func() {
		var id string

		BeforeEach(func() {
			Expect(importCSV("property_url\nhttps://example.com/a\n").Code).To(Equal(http.StatusOK))
			id = firstID()
		})

		It("saves notes without touching the status", func() {
			resp := do(http.MethodPut, "/api/listings/"+id+"/notes", []byte(`{"notes":"call agent"}`), "application/json")
			Expect(resp.Code).To(Equal(http.StatusOK))

			l, err := repo.GetListing(context.Background(), id)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Notes).To(HaveValue(Equal("call agent")))
			Expect(l.Status).To(Equal("pending"))
		})

		It("marks a listing as reviewed", func() {
			resp := do(http.MethodPost, "/api/listings/"+id+"/review", []byte(`{"notes":"fine"}`), "application/json")
			Expect(resp.Code).To(Equal(http.StatusOK))

			l, err := repo.GetListing(context.Background(), id)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Status).To(Equal("done"))
			Expect(l.Quality).To(Equal("ok"))
			Expect(l.Notes).To(HaveValue(Equal("fine")))
		})

		It("requeues a listing", func() {
			Expect(do(http.MethodPost, "/api/listings/"+id+"/review", nil, "").Code).To(Equal(http.StatusOK))

			resp := do(http.MethodPost, "/api/listings/"+id+"/requeue", nil, "")
			Expect(resp.Code).To(Equal(http.StatusOK))

			l, err := repo.GetListing(context.Background(), id)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Status).To(Equal("pending"))
		})

		It("rejects a malformed notes body", func() {
			resp := do(http.MethodPut, "/api/listings/"+id+"/notes", []byte(`{"notes":`), "application/json")

			Expect(resp.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a score that is not an object", func() {
			resp := do(http.MethodPut, "/api/listings/"+id+"/score", []byte(`[true]`), "application/json")

			Expect(resp.Code).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("returns 404 for an unknown listing",
			func(method, path string) {
				resp := do(method, path, []byte(`{}`), "application/json")
				Expect(resp.Code).To(Equal(http.StatusNotFound))
			},
			Entry("notes", http.MethodPut, "/api/listings/missing/notes"),
			Entry("review", http.MethodPost, "/api/listings/missing/review"),
			Entry("requeue", http.MethodPost, "/api/listings/missing/requeue"),
			Entry("score", http.MethodPut, "/api/listings/missing/score"),
		)
	})
})
