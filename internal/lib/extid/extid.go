// Package extid кодирует и декодирует внешний идентификатор счёта —
// единственную связь между платёжным событием шлюза и биллинговым
// намерением. Формат провода фиксирован для совместимости со шлюзом:
// поля соединяются через "-", значения полей не должны содержать
// разделитель. Внутри приложения идентификатор сразу превращается
// в типизированный Intent, чтобы диспетчеризация не разбирала строки.
package extid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Delimiter — разделитель полей в проводном формате.
const Delimiter = "-"

// Теги транзакций в проводном формате.
const (
	TagNewSubscription = "INV"
	TagUpgrade         = "UPG"
	TagAddon           = "ADD"
)

// ErrUnparsable возвращается для идентификатора, не соответствующего
// ни одной известной форме. Вызывающий обязан не падать на таких
// значениях: шлюз присылает их как есть.
var ErrUnparsable = errors.New("external id is not parsable")

// Kind — вид биллингового намерения.
type Kind int

const (
	// KindNewSubscription — покупка новой подписки.
	KindNewSubscription Kind = iota
	// KindUpgrade — апгрейд тарифного плана.
	KindUpgrade
	// KindAddon — покупка дополнения.
	KindAddon
)

// Intent — декодированное биллинговое намерение.
// PlanID заполнен для KindNewSubscription и KindUpgrade,
// AddonType и Quantity — для KindAddon.
type Intent struct {
	Kind      Kind
	UserID    int64
	PlanID    int64
	AddonType string
	Quantity  int
	IssuedAt  int64 // Unix-время выпуска счёта, нужно для отладки, не для корректности
}

// EncodeNewSubscription формирует идентификатор покупки подписки:
// INV-{user}-{plan}-{unix}.
func EncodeNewSubscription(userID, planID int64, issuedAt time.Time) string {
	return encodePlan(TagNewSubscription, userID, planID, issuedAt)
}

// EncodeUpgrade формирует идентификатор апгрейда: UPG-{user}-{plan}-{unix}.
func EncodeUpgrade(userID, planID int64, issuedAt time.Time) string {
	return encodePlan(TagUpgrade, userID, planID, issuedAt)
}

// EncodeAddon формирует идентификатор покупки дополнения:
// ADD-{user}-{addon_type}-{qty}-{unix}. addonType — каталожная строка
// без разделителя.
func EncodeAddon(userID int64, addonType string, quantity int, issuedAt time.Time) string {
	return strings.Join([]string{
		TagAddon,
		strconv.FormatInt(userID, 10),
		addonType,
		strconv.Itoa(quantity),
		strconv.FormatInt(issuedAt.Unix(), 10),
	}, Delimiter)
}

func encodePlan(tag string, userID, planID int64, issuedAt time.Time) string {
	return strings.Join([]string{
		tag,
		strconv.FormatInt(userID, 10),
		strconv.FormatInt(planID, 10),
		strconv.FormatInt(issuedAt.Unix(), 10),
	}, Delimiter)
}

// Decode разбирает проводной идентификатор в Intent.
// INV и UPG требуют не менее четырёх полей, ADD — не менее пяти;
// всё прочее — ErrUnparsable. Decode никогда не паникует.
func Decode(s string) (*Intent, error) {
	const op = "extid.Decode"

	parts := strings.Split(s, Delimiter)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
	}

	switch parts[0] {
	case TagNewSubscription, TagUpgrade:
		if len(parts) < 4 {
			return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
		}
		userID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
		}
		planID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
		}
		issuedAt, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
		}
		kind := KindNewSubscription
		if parts[0] == TagUpgrade {
			kind = KindUpgrade
		}
		return &Intent{
			Kind:     kind,
			UserID:   userID,
			PlanID:   planID,
			IssuedAt: issuedAt,
		}, nil

	case TagAddon:
		if len(parts) < 5 {
			return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
		}
		userID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
		}
		quantity, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
		}
		issuedAt, err := strconv.ParseInt(parts[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
		}
		return &Intent{
			Kind:      KindAddon,
			UserID:    userID,
			AddonType: parts[2],
			Quantity:  quantity,
			IssuedAt:  issuedAt,
		}, nil

	default:
		return nil, fmt.Errorf("%s: %w", op, ErrUnparsable)
	}
}
