package plateService

import (
	plateRepository "ProjectPlaca/internal/api/plate/repository"
	"ProjectPlaca/internal/api/plate"
	"ProjectPlaca/internal/entity"
	"ProjectPlaca/pkg/inference"
	redisPkg "ProjectPlaca/pkg/redis"
	"ProjectPlaca/pkg/regcheck"
	"ProjectPlaca/pkg/s3"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IPlateService interface {
	DetectPlate(ctx context.Context, imageBytes []byte) (*plate.DetectPlateResponse, error)
	StreamFrame(frame []byte) (*entity.PlateStreamResult, error)
	History(ctx context.Context) ([]plate.ConsultaItem, error)
	ExportHistoryCSV(ctx context.Context) ([]byte, error)
	UpdateObservation(ctx context.Context, id int64, observation string) error
	DeleteConsultation(ctx context.Context, id int64) error
	ReportVehicle(ctx context.Context, placa string, descripcion string) error
}

type plateService struct {
	log      *logrus.Logger
	repo     plateRepository.Repository
	bridge   inference.IBridge
	registry regcheck.IRegCheck
	cache    redisPkg.IRedis
	s3Client s3.ItfS3
}

func New(
	log *logrus.Logger,
	repo plateRepository.Repository,
	bridge inference.IBridge,
	registry regcheck.IRegCheck,
	cache redisPkg.IRedis,
	s3Client s3.ItfS3,
) IPlateService {
	return &plateService{
		log:      log,
		repo:     repo,
		bridge:   bridge,
		registry: registry,
		cache:    cache,
		s3Client: s3Client,
	}
}
