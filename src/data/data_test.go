package data_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptverse/promptfeed/src/data"
	"github.com/promptverse/promptfeed/src/data/datatest"
	"github.com/promptverse/promptfeed/src/types"
)

func TestSettingsRoundTrip(t *testing.T) {
	db := datatest.NewDB(t)

	require.NoError(t, db.Create(&types.Setting{Name: "rate_limit", Value: "30"}).Error)
	require.NoError(t, data.LoadSettings(db))
	assert.Equal(t, "30", data.GetSetting("rate_limit"))
	assert.Equal(t, "", data.GetSetting("missing"))

	require.NoError(t, data.PutSetting(db, "rate_limit", "60"))
	assert.Equal(t, "60", data.GetSetting("rate_limit"))

	var count int64
	db.Model(&types.Setting{}).Where("name = ?", "rate_limit").Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, data.LoadSettings(db))
	assert.Equal(t, "60", data.GetSetting("rate_limit"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := datatest.NewDB(t)
	require.NoError(t, data.Migrate(db, nil))
	for _, m := range types.AllModels {
		assert.True(t, db.Migrator().HasTable(m))
	}
}
