package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"moul.io/zapgorm2"

	"github.com/stephentwig/shipgate/internal/models"
)

type DataBase struct {
	*gorm.DB
}

type DuplicateKey struct {
	nested error
}

func (e *DuplicateKey) Error() string {
	return e.nested.Error()
}

func (e *DuplicateKey) Unwrap() error {
	return e.nested
}

func IsDuplicateKey(err error) bool {
	duplicateKey := &DuplicateKey{}
	return errors.As(err, &duplicateKey)
}

// gorm does not classify driver errors itself:
// https://github.com/go-gorm/gorm/issues/4037
func isUniqueViolation(err error) bool {
	perr, ok := err.(*pgconn.PgError)
	if ok {
		return perr.Code == "23505"
	}
	return false
}

func OpenDataBase(logger *zap.Logger, dsn string) (*DataBase, error) {
	zapLogger := zapgorm2.New(logger.Named("gorm"))
	zapLogger.SetAsDefault()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: zapLogger,
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.PipelineRun{})
	if err != nil {
		return nil, err
	}

	return &DataBase{db}, nil
}

func (db *DataBase) AddRun(run *models.PipelineRun) error {
	err := db.Create(run).Error
	if err != nil && isUniqueViolation(err) {
		return &DuplicateKey{err}
	}
	return err
}

// UpdateRun upserts the mutable part of a run row.
func (db *DataBase) UpdateRun(run *models.PipelineRun) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "deploy_status", "diagnostics", "finished_at"}),
	}).Create(run).Error
}

func (db *DataBase) FindRun(id string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := db.First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (db *DataBase) ListRuns(limit int) (runs []models.PipelineRun, err error) {
	runs = make([]models.PipelineRun, 0)
	err = db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		runs = nil
	}
	return
}

func (db *DataBase) ListBranchRuns(branch string) (runs []models.PipelineRun, err error) {
	runs = make([]models.PipelineRun, 0)
	err = db.Find(&runs, "branch = ?", branch).Error
	if err != nil {
		runs = nil
	}
	return
}

func (db *DataBase) LastBranchRun(branch string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := db.Order("started_at DESC").First(&run, "branch = ?", branch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (db *DataBase) FinishRun(run *models.PipelineRun) error {
	res := db.Model(run).Updates(map[string]interface{}{
		"status":        run.Status,
		"deploy_status": run.DeployStatus,
		"diagnostics":   run.Diagnostics,
		"finished_at":   run.FinishedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("unknown run %s", run.ID)
	}
	return nil
}
