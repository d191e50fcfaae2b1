// Package models содержит доменные структуры биллингового ядра:
// тарифные планы, подписки, дополнения (add-on) и записи аудита,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

// Plan представляет неизменяемую запись каталога тарифных планов.
// Каталог создаётся и редактируется административной частью системы,
// биллинговое ядро работает с ним только на чтение.
type Plan struct {
	ID           int64  `json:"id"`            // Идентификатор плана
	Name         string `json:"name"`          // Название тарифа: prematur, starter, basic, pro, advanced, supreme
	PriceIDR     int64  `json:"price_idr"`     // Цена в рупиях (целое число)
	DurationDays int    `json:"duration_days"` // Длительность подписки в днях
	AllowAddons  bool   `json:"allow_addons"`  // Разрешены ли дополнения на этом тарифе
	IsActive     bool   `json:"is_active"`     // Доступен ли план для покупки
}
