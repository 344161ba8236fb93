package handler_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"unireg/internal/audit"
	"unireg/internal/audit/store/history"
	"unireg/internal/audit/store/version"
	"unireg/internal/declaration"
	"unireg/internal/declaration/handler"
	"unireg/internal/declaration/store/record"
	"unireg/internal/sequence"
	"unireg/internal/sequence/store/counter"
)

type HandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	allocator, err := sequence.New(counter.NewMemory(), sequence.WithLogger(logger))
	s.Require().NoError(err)

	hist := history.NewMemory()
	publisher := audit.NewPublisher(hist, audit.WithPublisherLogger(logger))
	trail, err := audit.New(publisher, hist, version.NewMemory(), audit.WithLogger(logger))
	s.Require().NoError(err)

	svc, err := declaration.New(record.NewMemory(), allocator, trail,
		declaration.WithLogger(logger))
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	handler.New(svc).Routes(s.router, s.router, s.router)
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) register() declaration.Declaration {
	rec := s.do(http.MethodPost, "/declarations",
		`{"partner_one":"Alex Novak","partner_two":"Sam Benes","place":"Praha 3","registered_at":"2026-02-14T00:00:00Z"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var d declaration.Declaration
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func (s *HandlerSuite) TestRegister() {
	s.Run("valid payload creates a numbered declaration", func() {
		d := s.register()
		s.Equal("UE-1", d.Book)
		s.Equal("01", d.Page)
		s.Equal(declaration.StatusActive, d.Status)
	})

	s.Run("malformed body is a bad request", func() {
		rec := s.do(http.MethodPost, "/declarations", `{`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing fields are unprocessable", func() {
		rec := s.do(http.MethodPost, "/declarations", `{"partner_one":"Alex Novak"}`)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})
}

func (s *HandlerSuite) TestLifecycle() {
	d := s.register()
	base := "/declarations/" + d.ID.String()

	s.Run("get returns the record", func() {
		rec := s.do(http.MethodGet, base, "")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("update changes fields", func() {
		rec := s.do(http.MethodPut, base, `{"place":"Brno"}`)
		s.Require().Equal(http.StatusOK, rec.Code)

		var got declaration.Declaration
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal("Brno", got.Place)
	})

	s.Run("document upload issues an id", func() {
		rec := s.do(http.MethodPost, base+"/documents", `{"filename":"certificate.pdf"}`)
		s.Require().Equal(http.StatusCreated, rec.Code)

		var resp map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.NotEmpty(resp["document_id"])
	})

	s.Run("history lists the changes newest first", func() {
		rec := s.do(http.MethodGet, base+"/history", "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var entries []audit.Entry
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &entries))
		s.Require().NotEmpty(entries)
		s.Equal(audit.OpUpdate, entries[0].Operation)
		s.Equal("place", entries[0].FieldName)
	})

	s.Run("archive retires the record", func() {
		rec := s.do(http.MethodPost, base+"/archive", "")
		s.Equal(http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodPost, base+"/archive", "")
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("unknown id is not found", func() {
		rec := s.do(http.MethodGet, "/declarations/00000000-0000-0000-0000-000000000000", "")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed id is a bad request", func() {
		rec := s.do(http.MethodGet, "/declarations/not-a-uuid", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
