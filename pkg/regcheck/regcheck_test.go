package regcheck_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"ProjectPlaca/pkg/regcheck"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc) regcheck.IRegCheck {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	os.Setenv("REGCHECK_ENDPOINT", server.URL)
	os.Setenv("REGCHECK_USERNAME", "tester")
	t.Cleanup(func() {
		os.Unsetenv("REGCHECK_ENDPOINT")
		os.Unsetenv("REGCHECK_USERNAME")
	})

	return regcheck.New(quietLogger())
}

const vehicleEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<Vehicle xmlns="http://regcheck.org.uk">
  <vehicleJson>{"Make":"Toyota","Model":"Yaris","RegistrationYear":2018,"VIN":"JTD123","Use":"Particular","Owner":"Maria Lopez","ImageUrl":"http://img.example/y.jpg"}</vehicleJson>
  <vehicleData><Description>TOYOTA Yaris</Description></vehicleData>
</Vehicle>`

func TestLookup(t *testing.T) {
	Convey("Given a registry answering with a full record", t, func() {
		var gotQuery map[string]string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"RegistrationNumber": r.URL.Query().Get("RegistrationNumber"),
				"username":           r.URL.Query().Get("username"),
			}
			w.Header().Set("Content-Type", "text/xml")
			io.WriteString(w, vehicleEnvelope)
		})

		Convey("When looking up a hyphenated lowercase plate", func() {
			record, err := client.Lookup(context.Background(), "ab-1234")

			So(err, ShouldBeNil)

			Convey("Then the registration is sent stripped and uppercased", func() {
				So(gotQuery["RegistrationNumber"], ShouldEqual, "AB1234")
				So(gotQuery["username"], ShouldEqual, "tester")
			})

			Convey("And the JSON payload inside the XML is parsed", func() {
				So(record.Make, ShouldEqual, "Toyota")
				So(record.Model, ShouldEqual, "Yaris")
				So(record.RegistrationYear, ShouldEqual, "2018")
				So(record.VIN, ShouldEqual, "JTD123")
				So(record.Use, ShouldEqual, "Particular")
				So(record.Owner, ShouldEqual, "Maria Lopez")
				So(record.ImageURL, ShouldEqual, "http://img.example/y.jpg")
			})
		})
	})

	Convey("Given a registry whose payload omits fields", t, func() {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `<?xml version="1.0"?>
<Vehicle xmlns="http://regcheck.org.uk"><vehicleJson>{"Make":"Nissan"}</vehicleJson></Vehicle>`)
		})

		Convey("When looking up the plate", func() {
			record, err := client.Lookup(context.Background(), "XY9876")

			Convey("Then absent fields carry their fixed fallbacks", func() {
				So(err, ShouldBeNil)
				So(record.Make, ShouldEqual, "Nissan")
				So(record.Model, ShouldEqual, "N/A")
				So(record.RegistrationYear, ShouldEqual, "N/A")
				So(record.VIN, ShouldEqual, "No disponible")
				So(record.Use, ShouldEqual, "Desconocido")
				So(record.Owner, ShouldEqual, "No disponible")
				So(record.ImageURL, ShouldEqual, "")
			})
		})
	})

	Convey("Given a registry that has no record for the plate", t, func() {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `<?xml version="1.0"?><string>Exception: Peru Lookup failed, request error</string>`)
		})

		Convey("When looking up the plate", func() {
			_, err := client.Lookup(context.Background(), "ZZ0000")

			Convey("Then the not-found class is reported", func() {
				var lookupErr *regcheck.LookupError
				So(errors.As(err, &lookupErr), ShouldBeTrue)
				So(lookupErr.Kind, ShouldEqual, regcheck.KindPlateNotFound)
			})
		})
	})

	Convey("Given a registry returning a server error", t, func() {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		Convey("When looking up the plate", func() {
			_, err := client.Lookup(context.Background(), "AB1234")

			var lookupErr *regcheck.LookupError
			So(errors.As(err, &lookupErr), ShouldBeTrue)
			So(lookupErr.Kind, ShouldEqual, regcheck.KindServerUnavailable)
			So(lookupErr.StatusCode, ShouldEqual, http.StatusBadGateway)
		})
	})

	Convey("Given a registry responding without vehicle data", t, func() {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `<?xml version="1.0"?><Vehicle xmlns="http://regcheck.org.uk"><vehicleJson></vehicleJson></Vehicle>`)
		})

		Convey("When looking up the plate", func() {
			_, err := client.Lookup(context.Background(), "AB1234")

			var lookupErr *regcheck.LookupError
			So(errors.As(err, &lookupErr), ShouldBeTrue)
			So(lookupErr.Kind, ShouldEqual, regcheck.KindNoData)
		})
	})

	Convey("Given an unreachable registry", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		os.Setenv("REGCHECK_ENDPOINT", server.URL)
		os.Setenv("REGCHECK_USERNAME", "tester")
		defer os.Unsetenv("REGCHECK_ENDPOINT")
		defer os.Unsetenv("REGCHECK_USERNAME")

		client := regcheck.New(quietLogger())
		server.Close()

		Convey("When looking up the plate", func() {
			_, err := client.Lookup(context.Background(), "AB1234")

			var lookupErr *regcheck.LookupError
			So(errors.As(err, &lookupErr), ShouldBeTrue)
			So(lookupErr.Kind, ShouldEqual, regcheck.KindTransport)
		})
	})
}
