// Package pricing содержит чистые функции расчёта стоимости дополнений
// и пропорциональной (prorated) цены апгрейда тарифного плана.
// Функции детерминированы, не выполняют ввода-вывода и не читают
// глобального состояния; все суммы — целые рупии.
package pricing

import (
	"errors"
	"math"
	"strings"
)

// ErrNotAllowed возвращается, когда тариф не допускает покупку дополнений.
// Это бизнес-исход, а не сбой: обработчики превращают его в отказ пользователю.
var ErrNotAllowed = errors.New("addons are not allowed on this tier")

// Базовые цены специальных дополнений в рупиях.
const (
	basicCrossPostingFlat = 100000 // Промо-цена для тарифа basic
	proCrossPostingBase   = 200000 // База пропорционального расчёта для pro
	proCrossPostingCycle  = 30     // Длительность цикла в днях для пропорции
)

// Стоимость одного IP по подтипу proxy.
var proxyUnitCosts = map[string]int64{
	"shared":    7500,
	"private":   18000,
	"dedicated": 37000,
}

// Стоимость единицы квоты по подтипу.
var quotaUnitCosts = map[string]int64{
	"proxy":   500,  // За один IP
	"account": 1000, // За один аккаунт
}

// ProxyBundle описывает готовый пакет proxy из каталога маркетплейса.
type ProxyBundle struct {
	SubType  string `json:"sub_type"`
	Quantity int    `json:"quantity"`
	PriceIDR int64  `json:"price_idr"`
	Label    string `json:"label"`
}

// ProxyBundles — каталожные пакеты proxy, отображаемые маркетплейсом.
// TODO: цены пакетов дают ставку за IP 10000/22500/44000, а proxyUnitCosts
// тарифицирует 7500/18000/37000; какая таблица главная — вопрос к продукту,
// до решения обе сохранены как есть.
var ProxyBundles = []ProxyBundle{
	{SubType: "shared", Quantity: 15, PriceIDR: 150000, Label: "Shared Bundle (15 IP)"},
	{SubType: "private", Quantity: 20, PriceIDR: 450000, Label: "Private Elite (20 IP)"},
	{SubType: "dedicated", Quantity: 25, PriceIDR: 1100000, Label: "Dedicated VIP (25 IP)"},
}

// CalculateAddonPrice вычисляет цену дополнения по правилам каталога.
// Первое совпавшее правило побеждает:
//  1. тарифы prematur и starter дополнений не имеют — ErrNotAllowed;
//  2. basic + cross_posting/cross_threads — фиксированные 100000;
//  3. pro + cross_posting/cross_threads — пропорционально остатку цикла;
//  4. proxy — цена за IP по подтипу, неизвестный подтип стоит 0;
//  5. quota — цена за единицу по подтипу;
//  6. всё остальное — 0.
//
// remainingDays — неотрицательное число дней до конца текущего цикла.
func CalculateAddonPrice(tier, addonType, subType string, quantity int, remainingDays float64) (int64, error) {
	tier = strings.ToLower(tier)
	addonType = strings.ToLower(addonType)

	if tier == "prematur" || tier == "starter" {
		return 0, ErrNotAllowed
	}

	crossFeature := addonType == "cross_posting" || addonType == "cross_threads"

	if tier == "basic" && crossFeature {
		return basicCrossPostingFlat, nil
	}

	if tier == "pro" && crossFeature {
		prorated := float64(proCrossPostingBase) / proCrossPostingCycle * remainingDays
		if prorated < 0 {
			prorated = 0
		}
		return roundHalfUp(prorated), nil
	}

	if addonType == "proxy" {
		return proxyUnitCosts[subType] * int64(quantity), nil
	}

	if addonType == "quota" {
		return quotaUnitCosts[subType] * int64(quantity), nil
	}

	return 0, nil
}

// CalculateUpgradeCost вычисляет доплату за переход на новый план с учётом
// неиспользованного остатка текущего. Остаток пересчитывается в кредит по
// дневной стоимости текущего плана; итог не бывает отрицательным.
// При нулевой или отрицательной длительности текущего плана кредит
// не начисляется и возвращается полная цена нового плана.
func CalculateUpgradeCost(currentPrice int64, currentDurationDays int, remainingDays float64, newPrice int64) int64 {
	if currentDurationDays <= 0 {
		return newPrice
	}
	dailyValue := float64(currentPrice) / float64(currentDurationDays)
	credit := dailyValue * remainingDays
	cost := float64(newPrice) - credit
	if cost < 0 {
		return 0
	}
	return roundHalfUp(cost)
}

// roundHalfUp округляет до ближайшего целого, 0.5 вверх.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
