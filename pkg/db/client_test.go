package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:db_client_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.Migrator().DropTable(&testModel{}))
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestPing(t *testing.T) {
	client := NewFromConn(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
	require.False(t, IsPostgres(client.DB()))
}

func TestClassifySQLiteUniqueViolation(t *testing.T) {
	conn := newTestDB(t)
	require.NoError(t, conn.Create(&testModel{Name: "dup"}).Error)
	err := conn.Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)

	classified := Classify(err, OpWrite, "Model")
	require.True(t, pkgerrors.IsCode(classified, pkgerrors.CodeConflict))
	require.Equal(t, "Model already exists", pkgerrors.As(classified).Message())
}

func TestClassifyPostgresCodes(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", Message: "insert or update violates foreign key constraint"}
	require.True(t, pkgerrors.IsCode(Classify(fk, OpWrite, "Rental"), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.IsCode(Classify(fk, OpDelete, "Inventory item"), pkgerrors.CodeConflict))

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	require.True(t, IsUniqueViolation(unique, ""))
	require.True(t, IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "users_email_key"`), "users_email_key"))
	require.False(t, IsUniqueViolation(errors.New("duplicate key value"), "other_key"))

	require.True(t, pkgerrors.IsCode(Classify(gorm.ErrRecordNotFound, OpWrite, "User"), pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(Classify(errors.New("connection reset"), OpWrite, "User"), pkgerrors.CodeInternal))

	typed := pkgerrors.New(pkgerrors.CodeForbidden, "nope")
	require.Same(t, typed, Classify(typed, OpWrite, "User"))
}
