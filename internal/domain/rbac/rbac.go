// Пакет rbac — логика ролей портала видеотеки.
// Роль приходит из app_metadata Auth-провайдера; неизвестная или
// пустая роль понижается до customer.
package rbac

// Роли в порядке возрастания привилегий.
const (
	// RoleCustomer — клиент: просмотр каталога и свой список.
	RoleCustomer = "customer"
	// RoleUploader — персонал: загрузка каталогов и правка метаданных.
	RoleUploader = "uploader"
	// RoleAdmin — администратор: всё, включая дашборд.
	RoleAdmin = "admin"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleCustomer: 1,
	RoleUploader: 2,
	RoleAdmin:    3,
}

// Normalize приводит роль из токена к допустимой.
// Неизвестная или пустая роль — customer.
func Normalize(role string) string {
	if IsValidRole(role) {
		return role
	}
	return RoleCustomer
}

// Allows — true, если роль have покрывает роль need.
// Роли строго вложены: admin покрывает uploader, uploader — customer.
func Allows(have, need string) bool {
	return roleWeight[Normalize(have)] >= roleWeight[Normalize(need)]
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}
