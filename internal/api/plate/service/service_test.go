package plateService_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"strings"
	"testing"
	"time"

	"ProjectPlaca/internal/api/plate"
	plateRepository "ProjectPlaca/internal/api/plate/repository"
	plateService "ProjectPlaca/internal/api/plate/service"
	"ProjectPlaca/internal/entity"
	"ProjectPlaca/pkg/inference"
	"ProjectPlaca/pkg/regcheck"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeHandles struct {
	boxes    []inference.Box
	boxesErr error
	ocr      inference.Result
	ocrErr   error
}

func (f *fakeHandles) DetectPlates(frame []byte) ([]inference.Box, error) {
	return f.boxes, f.boxesErr
}

func (f *fakeHandles) RecognizeText(crop []byte) (inference.Result, error) {
	return f.ocr, f.ocrErr
}

type fakeBridge struct {
	handles *fakeHandles
	err     error
}

func (f *fakeBridge) Acquire() (inference.IHandles, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.handles, nil
}

func (f *fakeBridge) Close() {}

type fakeRegistry struct {
	record *regcheck.VehicleRecord
	err    error
	calls  int
}

func (f *fakeRegistry) Lookup(ctx context.Context, plate string) (*regcheck.VehicleRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type fakeConsultations struct {
	saved     []entity.Consultation
	listed    []entity.Consultation
	updated   map[int64]string
	deleted   []int64
	deleteErr error
}

func (f *fakeConsultations) Save(ctx context.Context, c entity.Consultation) error {
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeConsultations) List(ctx context.Context) ([]entity.Consultation, error) {
	return f.listed, nil
}

func (f *fakeConsultations) UpdateObservation(ctx context.Context, id int64, observation string) error {
	if f.updated == nil {
		f.updated = map[int64]string{}
	}
	f.updated[id] = observation
	return nil
}

func (f *fakeConsultations) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeReports struct {
	byPlate map[string]entity.Report
	upserts []entity.Report
}

func (f *fakeReports) Upsert(ctx context.Context, report entity.Report) error {
	f.upserts = append(f.upserts, report)
	return nil
}

func (f *fakeReports) GetByPlate(ctx context.Context, placa string) (entity.Report, bool, error) {
	report, found := f.byPlate[placa]
	return report, found, nil
}

type fakeCache struct {
	entries map[string]string
	sets    int
}

func (f *fakeCache) SetLookup(ctx context.Context, plate string, payload string, expiration time.Duration) error {
	if f.entries == nil {
		f.entries = map[string]string{}
	}
	f.entries[plate] = payload
	f.sets++
	return nil
}

func (f *fakeCache) GetLookup(ctx context.Context, plate string) (string, error) {
	payload, ok := f.entries[plate]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return payload, nil
}

type fakeRepo struct {
	consultations *fakeConsultations
	reports       *fakeReports
}

func (f *fakeRepo) NewClient(tx bool) (plateRepository.Client, error) {
	return plateRepository.Client{
		Consultations: f.consultations,
		Reports:       f.reports,
		Commit:        func() error { return nil },
		Rollback:      func() error { return nil },
	}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// sampleJPEG builds a small valid frame so the pipeline exercises the
// real decode and resize path.
func sampleJPEG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 5), 120, 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TestDetectPlate(t *testing.T) {
	Convey("Given a recognition service", t, func() {
		consultations := &fakeConsultations{}
		reports := &fakeReports{byPlate: map[string]entity.Report{}}
		repo := &fakeRepo{consultations: consultations, reports: reports}
		registry := &fakeRegistry{
			record: &regcheck.VehicleRecord{
				Make:             "Toyota",
				Model:            "Corolla",
				RegistrationYear: "2019",
				VIN:              "VIN123",
				Use:              "Particular",
				Owner:            "Juan Pérez",
			},
		}
		handles := &fakeHandles{
			boxes: []inference.Box{{X1: 10, Y1: 10, X2: 200, Y2: 80, Conf: 0.9}},
			ocr:   inference.Result{Kind: inference.KindStructured, Texts: []string{"ab-12 345"}},
		}
		bridge := &fakeBridge{handles: handles}

		svc := plateService.New(quietLogger(), repo, bridge, registry, nil, nil)

		Convey("When the inference capabilities are down", func() {
			bridge.err = errors.New("detector unavailable: dial refused")

			_, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldEqual, plate.ErrCapabilityUnavailable)
		})

		Convey("When the upload is not an image", func() {
			_, err := svc.DetectPlate(context.Background(), []byte("definitely not a jpeg"))
			So(err, ShouldEqual, plate.ErrImageDecode)
		})

		Convey("When the detector reports no regions", func() {
			handles.boxes = nil

			_, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldEqual, plate.ErrPlateNotFound)
		})

		Convey("When every region is below the confidence threshold", func() {
			handles.boxes = []inference.Box{{X1: 10, Y1: 10, X2: 200, Y2: 80, Conf: 0.3}}

			_, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldEqual, plate.ErrPlateNotFound)
		})

		Convey("When the OCR reader returns no text", func() {
			handles.ocr = inference.Result{Kind: inference.KindStructured}

			_, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldEqual, plate.ErrOCRFailed)
		})

		Convey("When the OCR text carries no alphanumerics", func() {
			handles.ocr = inference.Result{Kind: inference.KindStructured, Texts: []string{"-- --"}}

			_, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldEqual, plate.ErrOCRFailed)
		})

		Convey("When detection, OCR and the registry all succeed", func() {
			resp, err := svc.DetectPlate(context.Background(), sampleJPEG())

			So(err, ShouldBeNil)
			So(resp.Status, ShouldEqual, "success")
			So(resp.PlacaDetectada, ShouldEqual, "AB12345")
			So(resp.EstadoLegal.Estado, ShouldEqual,
				"✅ Marca: Toyota, Modelo: Corolla, Año: 2019, Uso: Particular, VIN: VIN123, Propietario: Juan Pérez")
			So(resp.PlacaImagen, ShouldNotBeEmpty)

			Convey("Then the consultation is persisted", func() {
				So(consultations.saved, ShouldHaveLength, 1)
				So(consultations.saved[0].Placa, ShouldEqual, "AB12345")
				So(consultations.saved[0].Marca, ShouldEqual, "Toyota")
			})
		})

		Convey("When the registry has no record for the plate", func() {
			registry.err = &regcheck.LookupError{Kind: regcheck.KindPlateNotFound}

			resp, err := svc.DetectPlate(context.Background(), sampleJPEG())

			Convey("Then the request still succeeds with a diagnostic estado", func() {
				So(err, ShouldBeNil)
				So(resp.Status, ShouldEqual, "success")
				So(resp.PlacaDetectada, ShouldEqual, "AB12345")
				So(resp.EstadoLegal.Estado, ShouldEqual, "❌ No se encontró la placa AB12345.")
			})

			Convey("And nothing is persisted", func() {
				So(consultations.saved, ShouldBeEmpty)
			})
		})

		Convey("When the registry answers with a server error", func() {
			registry.err = &regcheck.LookupError{Kind: regcheck.KindServerUnavailable, StatusCode: 502}

			resp, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldBeNil)
			So(resp.EstadoLegal.Estado, ShouldEqual, "⚠ ERROR 502: Servidor no disponible.")
		})

		Convey("When the registry response carries no vehicle data", func() {
			registry.err = &regcheck.LookupError{Kind: regcheck.KindNoData}

			resp, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldBeNil)
			So(resp.EstadoLegal.Estado, ShouldEqual, "⚠ No se encontraron datos para AB12345.")
		})

		Convey("When the registry is unreachable", func() {
			registry.err = &regcheck.LookupError{Kind: regcheck.KindTransport, Cause: errors.New("connection refused")}

			resp, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldBeNil)
			So(resp.EstadoLegal.Estado, ShouldStartWith, "⚠ Error conectando con RegCheck:")
		})

		Convey("When the plate has a local report on file", func() {
			reports.byPlate["AB12345"] = entity.Report{Placa: "AB12345", Descripcion: "Robado"}

			resp, err := svc.DetectPlate(context.Background(), sampleJPEG())
			So(err, ShouldBeNil)
			So(resp.EstadoLegal.Estado, ShouldEndWith, " 🚨 ALERTA: Robado")
		})

		Convey("When the lookup is already cached", func() {
			cache := &fakeCache{entries: map[string]string{
				"AB12345": `{"Make":"Kia","Model":"Rio","RegistrationYear":"2021","VIN":"VIN999","Use":"Taxi","Owner":"Ana Torres"}`,
			}}
			cachedSvc := plateService.New(quietLogger(), repo, bridge, registry, cache, nil)

			resp, err := cachedSvc.DetectPlate(context.Background(), sampleJPEG())

			Convey("Then the registry is never called", func() {
				So(err, ShouldBeNil)
				So(registry.calls, ShouldEqual, 0)
				So(resp.EstadoLegal.Estado, ShouldContainSubstring, "Marca: Kia")
			})

			Convey("And the consultation is still persisted", func() {
				So(err, ShouldBeNil)
				So(consultations.saved, ShouldHaveLength, 1)
			})
		})

		Convey("When the lookup is not cached yet", func() {
			cache := &fakeCache{}
			cachedSvc := plateService.New(quietLogger(), repo, bridge, registry, cache, nil)

			_, err := cachedSvc.DetectPlate(context.Background(), sampleJPEG())

			Convey("Then the live result is written back to the cache", func() {
				So(err, ShouldBeNil)
				So(registry.calls, ShouldEqual, 1)
				So(cache.sets, ShouldEqual, 1)
				So(cache.entries["AB12345"], ShouldContainSubstring, "Toyota")
			})
		})

		Convey("When the first qualifying region precedes a higher-confidence one", func() {
			handles.boxes = []inference.Box{
				{X1: 10, Y1: 10, X2: 200, Y2: 80, Conf: 0.6},
				{X1: 400, Y1: 300, X2: 600, Y2: 380, Conf: 0.95},
			}

			resp, err := svc.DetectPlate(context.Background(), sampleJPEG())

			Convey("Then the first region in service order wins", func() {
				So(err, ShouldBeNil)
				So(resp.PlacaDetectada, ShouldEqual, "AB12345")
			})
		})
	})
}

func TestStreamFrame(t *testing.T) {
	Convey("Given a recognition service with a live detector", t, func() {
		handles := &fakeHandles{}
		bridge := &fakeBridge{handles: handles}
		svc := plateService.New(quietLogger(), &fakeRepo{}, bridge, &fakeRegistry{}, nil, nil)

		Convey("When the frame contains qualifying regions", func() {
			handles.boxes = []inference.Box{
				{X1: 10, Y1: 10, X2: 200, Y2: 80, Conf: 0.9},
				{X1: 5, Y1: 5, X2: 30, Y2: 20, Conf: 0.2},
			}

			result, err := svc.StreamFrame(sampleJPEG())

			So(err, ShouldBeNil)
			So(result.Message, ShouldEqual, "placa detectada")
			So(result.Boxes, ShouldHaveLength, 1)
			So(result.Boxes[0].X2, ShouldEqual, 200)
		})

		Convey("When nothing qualifies", func() {
			handles.boxes = []inference.Box{{X1: 5, Y1: 5, X2: 30, Y2: 20, Conf: 0.2}}

			result, err := svc.StreamFrame(sampleJPEG())

			So(err, ShouldBeNil)
			So(result.Message, ShouldEqual, "sin detección")
			So(result.Boxes, ShouldBeEmpty)
		})
	})
}

func TestCanonicalizePlate(t *testing.T) {
	Convey("Given raw OCR text", t, func() {
		Convey("Separators and case are normalized away", func() {
			So(plateService.CanonicalizePlate("ab-12 345"), ShouldEqual, "AB12345")
			So(plateService.CanonicalizePlate(" a1B-2c3 "), ShouldEqual, "A1B2C3")
		})

		Convey("Canonical input passes through unchanged", func() {
			So(plateService.CanonicalizePlate("AB12345"), ShouldEqual, "AB12345")
			So(plateService.CanonicalizePlate(plateService.CanonicalizePlate("ab-12 345")), ShouldEqual, "AB12345")
		})

		Convey("Text without alphanumerics collapses to empty", func() {
			So(plateService.CanonicalizePlate("--- ¡!"), ShouldEqual, "")
		})
	})
}

func TestHistory(t *testing.T) {
	Convey("Given persisted consultations", t, func() {
		when := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
		consultations := &fakeConsultations{
			listed: []entity.Consultation{{
				ID:            7,
				Placa:         "AB12345",
				Marca:         "Toyota",
				Modelo:        "Corolla",
				Uso:           "Particular",
				Propietario:   "Juan Pérez",
				FechaConsulta: when,
				Observaciones: "verificado",
			}},
		}
		repo := &fakeRepo{consultations: consultations, reports: &fakeReports{}}
		svc := plateService.New(quietLogger(), repo, &fakeBridge{}, &fakeRegistry{}, nil, nil)

		Convey("When listing the history", func() {
			items, err := svc.History(context.Background())

			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 1)
			So(items[0].Placa, ShouldEqual, "AB12345")
			So(items[0].FechaConsulta, ShouldEqual, "2026-03-14 09:30:00")
		})

		Convey("When exporting as CSV", func() {
			data, err := svc.ExportHistoryCSV(context.Background())

			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			So(lines[0], ShouldEqual, "ID,Placa,Marca,Modelo,Uso,Propietario,Fecha,Observaciones")
			So(lines, ShouldHaveLength, 2)
			So(lines[1], ShouldEqual, "7,AB12345,Toyota,Corolla,Particular,Juan Pérez,2026-03-14 09:30:00,verificado")
		})

		Convey("When updating an observation", func() {
			err := svc.UpdateObservation(context.Background(), 7, "re-verificado")

			So(err, ShouldBeNil)
			So(consultations.updated[7], ShouldEqual, "re-verificado")
		})

		Convey("When deleting a consultation", func() {
			err := svc.DeleteConsultation(context.Background(), 7)

			So(err, ShouldBeNil)
			So(consultations.deleted, ShouldResemble, []int64{7})
		})

		Convey("When deleting an unknown consultation", func() {
			consultations.deleteErr = plate.ErrConsultationNotFound

			err := svc.DeleteConsultation(context.Background(), 99)
			So(err, ShouldEqual, plate.ErrConsultationNotFound)
		})
	})
}

func TestReportVehicle(t *testing.T) {
	Convey("Given a recognition service", t, func() {
		reports := &fakeReports{byPlate: map[string]entity.Report{}}
		repo := &fakeRepo{consultations: &fakeConsultations{}, reports: reports}
		svc := plateService.New(quietLogger(), repo, &fakeBridge{}, &fakeRegistry{}, nil, nil)

		Convey("When the report is complete", func() {
			err := svc.ReportVehicle(context.Background(), " ab12345 ", "  Robado ")

			So(err, ShouldBeNil)
			So(reports.upserts, ShouldHaveLength, 1)
			So(reports.upserts[0].Placa, ShouldEqual, "AB12345")
			So(reports.upserts[0].Descripcion, ShouldEqual, "Robado")
		})

		Convey("When the plate is blank", func() {
			err := svc.ReportVehicle(context.Background(), "   ", "Robado")
			So(err, ShouldEqual, plate.ErrReportFieldsRequired)
		})

		Convey("When the description is blank", func() {
			err := svc.ReportVehicle(context.Background(), "AB12345", "")
			So(err, ShouldEqual, plate.ErrReportFieldsRequired)
		})
	})
}
