package repository

import "gorm.io/gorm"

// AdvisoryXactLock 获取以任意分组键为标识的事务级咨询锁
//
// 用于同一分组(如一个镜头)的多行需要在一个事务内整体读改写的场景。
// 锁在事务提交或回滚时自动释放。sqlite 没有对应机制，但其库级写锁
// 本身就串行化了写事务，因此直接返回 nil。
func AdvisoryXactLock(tx *gorm.DB, key string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
