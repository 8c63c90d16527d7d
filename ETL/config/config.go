package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/normalize"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath - файл конфигурации, который читается без флага --config.
// Его отсутствие не считается ошибкой.
const DefaultConfigPath = "northwind_etl.yaml"

// Переменные окружения, перекрывающие значения из файла
const (
	EnvWarehousePassword = "NORTHWIND_DW_PASSWORD"
	EnvPostgresDSN       = "NORTHWIND_DW_POSTGRES_DSN"
)

// Бэкенды хранилища
const (
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendParquet  = "parquet"
)

// Ошибки проверки конфигурации
var (
	ErrInvalidConfig        = errors.New("некорректная конфигурация")
	ErrMissingPostgresDSN   = errors.New("warehouse.postgres_dsn обязателен для бэкенда postgres")
	ErrMissingBucketURL     = errors.New("warehouse.bucket_url обязателен для бэкенда parquet")
	ErrDuplicateSourceFiles = errors.New("один файл указан для нескольких источников")
)

var validate = validator.New()

// ETLConfig содержит конфигурацию для ETL-процесса
type ETLConfig struct {
	Sources   SourcesConfig   `yaml:"sources"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Transform TransformConfig `yaml:"transform"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourcesConfig описывает входные файлы
type SourcesConfig struct {
	Dir string `yaml:"dir" validate:"required"`
	// Кодировка CSV-файлов; XLSX всегда читается как UTF-8
	Encoding string `yaml:"encoding" validate:"oneof=utf-8 windows-1252 iso-8859-1"`

	LineItems LineItemsSource `yaml:"line_items"`
	Orders    OrdersSource    `yaml:"orders"`
	Customers CustomersSource `yaml:"customers"`
	Catalog   CatalogSource   `yaml:"catalog"`
}

// LineItemsSource - файл позиций заказов и имена его столбцов
type LineItemsSource struct {
	File        string `yaml:"file" validate:"required"`
	OrderID     string `yaml:"order_id" validate:"required"`
	ProductName string `yaml:"product_name" validate:"required"`
	Quantity    string `yaml:"quantity" validate:"required"`
	UnitPrice   string `yaml:"unit_price" validate:"required"`
}

// OrdersSource - файл заголовков заказов
type OrdersSource struct {
	File         string `yaml:"file" validate:"required"`
	OrderID      string `yaml:"order_id" validate:"required"`
	CustomerName string `yaml:"customer_name" validate:"required"`
	OrderDate    string `yaml:"order_date" validate:"required"`
	ShippedDate  string `yaml:"shipped_date" validate:"required"`
}

// CustomersSource - файл справочника клиентов
type CustomersSource struct {
	File        string `yaml:"file" validate:"required"`
	CustomerID  string `yaml:"customer_id" validate:"required"`
	CompanyName string `yaml:"company_name" validate:"required"`
	Country     string `yaml:"country" validate:"required"`
}

// CatalogSource - необязательный каталог товаров
type CatalogSource struct {
	File        string `yaml:"file" validate:"required"`
	ProductName string `yaml:"product_name" validate:"required"`
	Category    string `yaml:"category" validate:"required"`
}

// WarehouseConfig описывает целевое хранилище
type WarehouseConfig struct {
	Backend string         `yaml:"backend" validate:"oneof=mysql postgres parquet"`
	MySQL   DatabaseConfig `yaml:"mysql"`

	PostgresDSN string `yaml:"postgres_dsn"`

	// BucketURL - адрес gocloud bucket для parquet: file:///path, s3://..., gs://...
	BucketURL string `yaml:"bucket_url"`
	Prefix    string `yaml:"prefix"`

	// BatchSize - число строк в одном INSERT для MySQL
	BatchSize int `yaml:"batch_size" validate:"gte=1,lte=10000"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname" validate:"required"`
}

// TransformConfig - параметры трансформации
type TransformConfig struct {
	FallbackCategory   string `yaml:"fallback_category" validate:"required"`
	CurrencyConvention string `yaml:"currency_convention"`
	// StrictCustomerKeys делает повторный CustomerID фатальной ошибкой
	StrictCustomerKeys bool `yaml:"strict_customer_keys"`
}

// ScheduleConfig - параметры периодического запуска
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
	// Listen - адрес HTTP API статуса; пустая строка отключает API
	Listen string `yaml:"listen"`
}

// ArchiveConfig - архив снимков исходных файлов
type ArchiveConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig - параметры логирования
type LoggingConfig struct {
	File    string `yaml:"file"`
	Format  string `yaml:"format" validate:"oneof=text json"`
	Verbose bool   `yaml:"verbose"`
}

// Значения конфигурации по умолчанию
var (
	DefaultWarehouseDB = DatabaseConfig{
		Host:   "localhost",
		Port:   3306,
		User:   "root",
		DBName: "northwind_dw",
	}

	DefaultETLConfig = ETLConfig{
		Sources: SourcesConfig{
			Dir:      ".",
			Encoding: "utf-8",
			LineItems: LineItemsSource{
				File:        "Order Details.csv",
				OrderID:     "Order ID",
				ProductName: "Product",
				Quantity:    "Quantity",
				UnitPrice:   "Unit Price",
			},
			Orders: OrdersSource{
				File:         "Orders.csv",
				OrderID:      "Order ID",
				CustomerName: "Customer",
				OrderDate:    "Order Date",
				ShippedDate:  "Shipped Date",
			},
			Customers: CustomersSource{
				File:        "Customers.csv",
				CustomerID:  "ID",
				CompanyName: "Company",
				Country:     "Country/Region",
			},
			Catalog: CatalogSource{
				File:        "Products.csv",
				ProductName: "Product Name",
				Category:    "Category",
			},
		},
		Warehouse: WarehouseConfig{
			Backend:   BackendMySQL,
			MySQL:     DefaultWarehouseDB,
			BatchSize: 500,
		},
		Transform: TransformConfig{
			FallbackCategory:   "General",
			CurrencyConvention: string(normalize.ConventionAuto),
		},
		Schedule: ScheduleConfig{
			Interval: 1 * time.Hour,
		},
		Logging: LoggingConfig{
			Format: "text",
		},
	}
)

// GetConfig возвращает конфигурацию ETL по умолчанию
func GetConfig() ETLConfig {
	return DefaultETLConfig
}

// Load читает конфигурацию из YAML поверх значений по умолчанию.
// Если mustExist равен false, отсутствующий файл не считается ошибкой.
func Load(path string, mustExist bool) (ETLConfig, error) {
	cfg := GetConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return ETLConfig{}, fmt.Errorf("ошибка разбора файла конфигурации %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !mustExist:
	default:
		return ETLConfig{}, fmt.Errorf("ошибка чтения файла конфигурации %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return ETLConfig{}, err
	}
	return cfg, nil
}

func (c *ETLConfig) applyEnv() {
	if v, ok := os.LookupEnv(EnvWarehousePassword); ok {
		c.Warehouse.MySQL.Password = v
	}
	if v, ok := os.LookupEnv(EnvPostgresDSN); ok {
		c.Warehouse.PostgresDSN = v
	}
}

// Validate проверяет конфигурацию
func (c *ETLConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := normalize.ParseConvention(c.Transform.CurrencyConvention); err != nil {
		return fmt.Errorf("%w: transform.currency_convention: %v", ErrInvalidConfig, err)
	}

	switch c.Warehouse.Backend {
	case BackendPostgres:
		if c.Warehouse.PostgresDSN == "" {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrMissingPostgresDSN)
		}
	case BackendParquet:
		if c.Warehouse.BucketURL == "" {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrMissingBucketURL)
		}
	}

	seen := make(map[string]bool)
	for _, file := range []string{
		c.Sources.LineItems.File,
		c.Sources.Orders.File,
		c.Sources.Customers.File,
		c.Sources.Catalog.File,
	} {
		key := strings.ToLower(file)
		if seen[key] {
			return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrDuplicateSourceFiles, file)
		}
		seen[key] = true
	}
	return nil
}

// Convention возвращает разобранное соглашение о разделителях сумм
func (c ETLConfig) Convention() normalize.Convention {
	conv, err := normalize.ParseConvention(c.Transform.CurrencyConvention)
	if err != nil {
		return normalize.ConventionAuto
	}
	return conv
}
