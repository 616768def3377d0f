package mysql

const deleteInspectionsSQL = `DELETE FROM inspections WHERE municipality = ?`

const deleteBusinessesSQL = `DELETE FROM businesses WHERE municipality = ?`

const insertBusinessesPrefix = "INSERT INTO businesses\n" +
	"  (municipality, business_id, name, address, city, state, postal_code, lat, lon, phone_number)\nVALUES "

// seq keeps encounter order for reads.
const insertInspectionsPrefix = "INSERT INTO inspections\n" +
	"  (municipality, seq, business_id, score, inspected_on, description, `type`)\nVALUES "

const getBusinessSQL = `
SELECT business_id, name, address, city, state, postal_code, lat, lon, phone_number
FROM businesses
WHERE municipality = ? AND business_id = ?
`

const listInspectionsSQL = "SELECT business_id, score, inspected_on, description, `type`\n" +
	"FROM inspections\n" +
	"WHERE municipality = ? AND business_id = ?\n" +
	"ORDER BY inspected_on DESC, seq DESC\n" +
	"LIMIT ?"
