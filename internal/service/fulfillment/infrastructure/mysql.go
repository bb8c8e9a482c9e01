// internal/service/fulfillment/infrastructure/mysql.go
package infrastructure

import (
	"time"

	driver "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MySQLConfig 是打开订单库所需的连接参数。
type MySQLConfig struct {
	Addr     string
	User     string
	Password string
	Database string
}

// NewDB 打开 MySQL 连接并配置连接池。
// DSN 通过 go-sql-driver 的 Config 构造，避免手拼字符串的转义问题。
func NewDB(cfg MySQLConfig) (*gorm.DB, error) {
	dsnCfg := driver.NewConfig()
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = cfg.Addr
	dsnCfg.User = cfg.User
	dsnCfg.Passwd = cfg.Password
	dsnCfg.DBName = cfg.Database
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.UTC

	db, err := gorm.Open(gormmysql.Open(dsnCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
