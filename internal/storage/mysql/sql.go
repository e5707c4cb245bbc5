package mysql

const upsertCategorySQL = `
INSERT INTO categories
  (name, top_10, updated_at)
VALUES
  (?, ?, ?)
ON DUPLICATE KEY UPDATE
  top_10     = VALUES(top_10),
  updated_at = VALUES(updated_at)
`

const getCategorySQL = `
SELECT name, top_10, updated_at
FROM categories
WHERE name = ?
`

const listCategoriesSQL = `
SELECT name, top_10, updated_at
FROM categories
ORDER BY name
`

const insertRefreshLogSQL = `
INSERT INTO refresh_log
  (id, started_at, finished_at, status, details)
VALUES
  (?, ?, ?, ?, ?)
`

const lastRefreshSQL = `
SELECT id, started_at, finished_at, status, details
FROM refresh_log
ORDER BY finished_at DESC
LIMIT 1
`
