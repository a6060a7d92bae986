package addrspace

/*
Пакет addrspace — единственный источник правды для адресации записей
в общем детерминированном хранилище. Router и Slab НЕ вызывают друг друга:
они «встречаются» только на одинаково вычисленных адресах, поэтому любое
расхождение в порядке или кодировании частей ключа — протокольная поломка,
а не runtime-ошибка. Обе службы обязаны импортировать этот пакет,
дублировать деривацию руками запрещено.
*/

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

// Неймспейсы записей. Значения попадают в адрес как префикс,
// так что записи разных типов не могут столкнуться.
const (
	NamespaceState   = "state"
	NamespaceOracle  = "oracle"
	NamespaceMandate = "mandate"
	NamespaceSlab    = "slab"
)

// Derive вычисляет адрес записи из неймспейса и частей составного ключа.
// Кодирование: sha256 поверх length-prefixed частей. Префикс длины
// исключает коллизии склейки ("ab","c" != "a","bc").
func Derive(namespace string, parts ...[]byte) string {
	h := sha256.New()

	var lenBuf [8]byte
	write := func(p []byte) {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}

	write([]byte(namespace))
	for _, p := range parts {
		write(p)
	}

	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// State — адрес синглтона RouterState.
func State() string {
	return Derive(NamespaceState)
}

// Oracle — адрес оценки риска для актива.
func Oracle(asset string) string {
	return Derive(NamespaceOracle, []byte(asset))
}

// Mandate — адрес мандата для тройки (user, asset, strategy).
// Дискриминант стратегии входит в ключ одним байтом.
func Mandate(user, asset string, strategy domain.Strategy) string {
	return Derive(NamespaceMandate, []byte(user), []byte(asset), []byte{byte(strategy)})
}

// Slab — адрес реестра исполнения для владельца.
func Slab(owner string) string {
	return Derive(NamespaceSlab, []byte(owner))
}
