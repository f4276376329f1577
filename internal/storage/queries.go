package storage

const (
	insertUser = `INSERT INTO users (id, alias_name, created_at) VALUES (?, ?, ?)`
	selectUser = `SELECT id, alias_name, created_at FROM users WHERE id = ?`
	listUsers  = `SELECT id, alias_name, created_at FROM users ORDER BY rowid`
	deleteUser = `DELETE FROM users WHERE id = ?`

	recordColumns = `id, user_id, type, species, quantity, location, collected_at, notes,
		unit_price, total_price, buy_price, sell_price, total_revenue, total_cost, total_profit`

	insertRecord = `INSERT INTO stock_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	updateRecord = `UPDATE stock_records SET
		user_id = ?, type = ?, species = ?, quantity = ?, location = ?, collected_at = ?, notes = ?,
		unit_price = ?, total_price = ?, buy_price = ?, sell_price = ?,
		total_revenue = ?, total_cost = ?, total_profit = ?
		WHERE id = ?`

	selectRecord          = `SELECT ` + recordColumns + ` FROM stock_records WHERE id = ?`
	listRecords           = `SELECT ` + recordColumns + ` FROM stock_records ORDER BY rowid`
	listRecordsByUser     = `SELECT ` + recordColumns + ` FROM stock_records WHERE user_id = ? ORDER BY rowid`
	listRecordsByUserYear = `SELECT ` + recordColumns + ` FROM stock_records
		WHERE user_id = ? AND substr(collected_at, 1, 4) = ? ORDER BY rowid`
	deleteRecord = `DELETE FROM stock_records WHERE id = ?`

	selectPriceID = `SELECT id FROM price_references WHERE type = ? AND species = ? AND year = ?`
	insertPrice   = `INSERT INTO price_references (id, type, species, year, buy_price, sell_price, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	updatePrice = `UPDATE price_references SET buy_price = ?, sell_price = ?, updated_at = ? WHERE id = ?`
	listPrices  = `SELECT id, type, species, year, buy_price, sell_price, updated_at FROM price_references
		WHERE (?1 = '' OR type = ?1) AND (?2 = '' OR species = ?2) ORDER BY rowid`
	deletePrice = `DELETE FROM price_references WHERE id = ?`
)
