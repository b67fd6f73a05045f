package journal

const mysqlSchema = `CREATE TABLE IF NOT EXISTS actions (
	id VARCHAR(66) NOT NULL,
	action_type VARCHAR(32) NOT NULL,
	staker VARCHAR(42) NOT NULL,
	amount BIGINT UNSIGNED NOT NULL,
	reward BIGINT UNSIGNED NOT NULL,
	created_at BIGINT UNSIGNED NOT NULL,
	PRIMARY KEY (id),
	INDEX idx_staker (staker),
	INDEX idx_created_at (created_at)
);`

const sqliteSchema = `CREATE TABLE IF NOT EXISTS "actions" (
	"id" TEXT NOT NULL PRIMARY KEY,
	"action_type" TEXT NOT NULL,
	"staker" TEXT NOT NULL,
	"amount" INTEGER NOT NULL,
	"reward" INTEGER NOT NULL,
	"created_at" INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS "idx_staker" ON "actions" ("staker");
CREATE INDEX IF NOT EXISTS "idx_created_at" ON "actions" ("created_at");`

const insertActionQuery = `INSERT INTO actions (id, action_type, staker, amount, reward, created_at) VALUES (?, ?, ?, ?, ?, ?)`
